package domain

import (
	"context"
	"time"
)

// CacheRepository caches source responses so repeated searches do not
// re-hit the external providers.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ObjectMeta is the sidecar metadata stored with a shared PDF.
type ObjectMeta map[string]string

// ObjectInfo is the result of a head call.
type ObjectInfo struct {
	Size int64
	Meta ObjectMeta
}

// ObjectStore is the pluggable byte store for shared report PDFs.
// Operations are atomic per key; put overwrites safely, and get/head return
// (nil, nil) for missing keys rather than an error.
type ObjectStore interface {
	Put(ctx context.Context, key string, bytes []byte, meta ObjectMeta) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (*ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// AuditEntry records one read access to a shared report. HashedIP is an
// HMAC of the client address; raw IPs are never written.
type AuditEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	HashedIP  string `json:"hashedIP"`
	UserAgent string `json:"userAgent"`
}

// AuditLog is an append-only access log, one stream per share id.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, id string) ([]AuditEntry, error)
}

// FoodSource is one external food-data provider. Implementations must be
// fault-isolated: a failing source is treated by callers as contributing
// no candidates.
type FoodSource interface {
	Name() DataSource
	SearchByName(ctx context.Context, query string, limit int) ([]NormalizedFood, error)
	LookupByBarcode(ctx context.Context, barcode string) (*NormalizedFood, error)
}
