package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/nutriweek/backend/internal/domain"
)

// tokenVersion is the fixed version string folded into every signature.
const tokenVersion = "v1"

func hmacSHA256(data, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

// SignToken produces a share token of the form id.signature.exp, where the
// signature is an HMAC-SHA256 over "id|exp|version", base64url-encoded
// without padding.
func SignToken(id string, exp int64, secret, version string) string {
	payload := fmt.Sprintf("%s|%d|%s", id, exp, version)
	sig := base64.RawURLEncoding.EncodeToString(hmacSHA256(payload, secret))
	return fmt.Sprintf("%s.%s.%d", id, sig, exp)
}

// TokenComponents are the parsed fields of a share token.
type TokenComponents struct {
	ID        string
	Exp       int64
	Signature string
}

// TokenValidation is the outcome of a signature check. Expiry is not
// checked here; Valid can be true for an expired token.
type TokenValidation struct {
	Valid      bool
	Components *TokenComponents
}

// ParseToken splits a token into its three dot-separated fields. Returns
// nil for anything malformed; parsing never panics or errors.
func ParseToken(token string) *TokenComponents {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil
	}
	return &TokenComponents{ID: parts[0], Exp: exp, Signature: parts[1]}
}

// ValidateTokenSignature recomputes the expected signature for a token and
// compares it in constant time. Malformed input yields an invalid result,
// never an error.
func ValidateTokenSignature(token, secret string) TokenValidation {
	components := ParseToken(token)
	if components == nil {
		return TokenValidation{}
	}
	payload := fmt.Sprintf("%s|%d|%s", components.ID, components.Exp, tokenVersion)
	expected := base64.RawURLEncoding.EncodeToString(hmacSHA256(payload, secret))
	return TokenValidation{
		Valid:      hmac.Equal([]byte(components.Signature), []byte(expected)),
		Components: components,
	}
}

// HashIP hashes a client address with the share secret. Raw IPs are never
// stored in audit logs.
func HashIP(ip, secret string) string {
	return hex.EncodeToString(hmacSHA256(ip, secret))
}

// GenerateShareID returns an opaque identifier of the form
// share_<base36 timestamp>_<base36 random>.
func GenerateShareID(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	random := strconv.FormatInt(rand.Int63n(1<<31), 36)
	return fmt.Sprintf("share_%s_%s", ts, random)
}

// ShareConfig configures a ShareService.
type ShareConfig struct {
	Secret     string
	BaseURL    string        // e.g. https://app.local/share
	LinkTTL    time.Duration // default 7 days
	Storage    domain.ObjectStore
	Audit      domain.AuditLog
	Clock      func() time.Time // for tests; defaults to time.Now
}

// ShareService issues and validates expiring capability links for stored
// report PDFs. Tokens are stateless: validity is fully determined by
// recomputing the HMAC, with only the PDF bytes held in the object store.
type ShareService struct {
	secret  string
	baseURL string
	linkTTL time.Duration
	storage domain.ObjectStore
	audit   domain.AuditLog
	clock   func() time.Time
}

// NewShareService creates a share service with defaults applied.
func NewShareService(cfg ShareConfig) *ShareService {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.LinkTTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &ShareService{
		secret:  cfg.Secret,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		linkTTL: ttl,
		storage: cfg.Storage,
		audit:   cfg.Audit,
		clock:   clock,
	}
}

// ShareLinkInput is what the sharing workflow hands over after a PDF has
// been rendered.
type ShareLinkInput struct {
	PDFBytes     []byte
	Stage        domain.LifeStage
	WeekStartISO string
	Version      string
}

// ShareLinkResult is the issued link.
type ShareLinkResult struct {
	URL          string `json:"url"`
	ID           string `json:"id"`
	ExpiresAtISO string `json:"expiresAt"`
}

// CreateLink stores the PDF under a fresh opaque id and returns a signed,
// expiring URL for it.
func (s *ShareService) CreateLink(ctx context.Context, input ShareLinkInput) (*ShareLinkResult, error) {
	now := s.clock()
	id := GenerateShareID(now)
	exp := now.Add(s.linkTTL).Unix()

	meta := domain.ObjectMeta{
		"stage":        string(input.Stage),
		"weekStartISO": input.WeekStartISO,
		"version":      input.Version,
		"createdAt":    now.UTC().Format(time.RFC3339),
	}
	if err := s.storage.Put(ctx, id, input.PDFBytes, meta); err != nil {
		return nil, fmt.Errorf("storing shared pdf: %w", err)
	}

	token := SignToken(id, exp, s.secret, tokenVersion)
	return &ShareLinkResult{
		URL:          fmt.Sprintf("%s/%s", s.baseURL, token),
		ID:           id,
		ExpiresAtISO: time.Unix(exp, 0).UTC().Format(time.RFC3339),
	}, nil
}

// ValidateToken checks structure, signature and expiry, in that order, and
// returns the share id on success. The three failure modes stay distinct so
// callers can answer "link invalid" and "link expired" differently.
func (s *ShareService) ValidateToken(token string) (string, error) {
	validation := ValidateTokenSignature(token, s.secret)
	if validation.Components == nil {
		return "", domain.ErrTokenMalformed
	}
	if !validation.Valid {
		return "", domain.ErrTokenInvalid
	}
	if s.clock().Unix() > validation.Components.Exp {
		return "", domain.ErrTokenExpired
	}
	return validation.Components.ID, nil
}

// ReadPDF fetches the stored PDF bytes for a share id; nil means the
// object is gone.
func (s *ShareService) ReadPDF(ctx context.Context, id string) ([]byte, error) {
	return s.storage.Get(ctx, id)
}

// LogAccess appends a read-access record for a share id. The IP is hashed
// before it reaches the audit log.
func (s *ShareService) LogAccess(ctx context.Context, id, ip, userAgent string) error {
	return s.audit.Append(ctx, domain.AuditEntry{
		ID:        id,
		Timestamp: s.clock().UTC().Format(time.RFC3339),
		HashedIP:  HashIP(ip, s.secret),
		UserAgent: userAgent,
	})
}

// ListAccess returns the audit trail for a share id.
func (s *ShareService) ListAccess(ctx context.Context, id string) ([]domain.AuditEntry, error) {
	return s.audit.List(ctx, id)
}
