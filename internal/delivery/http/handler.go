package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutriweek/backend/internal/domain"
	"github.com/nutriweek/backend/internal/infrastructure/refdata"
	"github.com/nutriweek/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	bundle *refdata.Bundle
	search *usecase.SearchService
	share  *usecase.ShareService
	log    *zap.SugaredLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(bundle *refdata.Bundle, search *usecase.SearchService, share *usecase.ShareService, log *zap.SugaredLogger) *Handler {
	return &Handler{bundle: bundle, search: search, share: share, log: log}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriweek-backend",
		"version": "1.0.0",
	})
}

type weeklyReportRequest struct {
	Stage string                `json:"stage" binding:"required"`
	Log   []domain.FoodLogEntry `json:"log" binding:"required"`
}

// ComputeWeeklyReport aggregates a posted food log into a weekly nutrient
// report for the given life stage.
func (h *Handler) ComputeWeeklyReport(c *gin.Context) {
	var req weeklyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	stage := domain.LifeStage(req.Stage)
	if !validStage(stage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown life stage: " + req.Stage})
		return
	}

	report, err := usecase.ComputeWeekly(usecase.ComputeWeeklyInput{
		Log:    req.Log,
		Stage:  stage,
		FoodDB: h.bundle.Foods,
		Goals:  h.bundle.Goals,
		Schema: h.bundle.Schema,
		Limits: h.bundle.Limits,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFoodNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNoEntries), errors.Is(err, domain.ErrGoalsNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}

// SearchFoods searches the external food-data sources by name.
func (h *Handler) SearchFoods(c *gin.Context) {
	query := c.Query("q")

	results, err := h.search.SearchFoods(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
			return
		}
		h.log.Errorw("food search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// LookupBarcode resolves a barcode across the external sources.
func (h *Handler) LookupBarcode(c *gin.Context) {
	barcode := c.Param("code")

	food, err := h.search.LookupBarcode(c.Request.Context(), barcode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no product found for barcode " + barcode})
		default:
			h.log.Errorw("barcode lookup failed", "barcode", barcode, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return
	}

	c.JSON(http.StatusOK, food)
}

type createShareRequest struct {
	PDFBase64 string `json:"pdf_base64" binding:"required"`
	Stage     string `json:"stage" binding:"required"`
	WeekStart string `json:"week_start" binding:"required"`
	Version   string `json:"version"`
}

// CreateShareLink stores a rendered report PDF and returns a signed,
// expiring link for it.
func (h *Handler) CreateShareLink(c *gin.Context) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if !validStage(domain.LifeStage(req.Stage)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown life stage: " + req.Stage})
		return
	}

	pdf, err := base64.StdEncoding.DecodeString(req.PDFBase64)
	if err != nil || len(pdf) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_base64 must be non-empty base64"})
		return
	}

	version := req.Version
	if version == "" {
		version = "1"
	}

	result, err := h.share.CreateLink(c.Request.Context(), usecase.ShareLinkInput{
		PDFBytes:     pdf,
		Stage:        domain.LifeStage(req.Stage),
		WeekStartISO: req.WeekStart,
		Version:      version,
	})
	if err != nil {
		h.log.Errorw("creating share link failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create share link"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ResolveShareLink validates a share token and serves the stored PDF.
// The three token failure modes answer differently: malformed tokens are a
// client error, bad signatures are forbidden, and expired links are gone.
func (h *Handler) ResolveShareLink(c *gin.Context) {
	token := c.Param("token")

	id, err := h.share.ValidateToken(token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenMalformed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed share token"})
		case errors.Is(err, domain.ErrTokenInvalid):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid share token"})
		case errors.Is(err, domain.ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"error": "share link has expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate token"})
		}
		return
	}

	pdf, err := h.share.ReadPDF(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("reading shared pdf failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read shared report"})
		return
	}
	if pdf == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "shared report no longer exists"})
		return
	}

	if err := h.share.LogAccess(c.Request.Context(), id, c.ClientIP(), c.Request.UserAgent()); err != nil {
		// Access logging must not block the read itself.
		h.log.Warnw("audit append failed", "id", id, "error", err)
	}

	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListShareAccess returns the audit trail for a share id.
func (h *Handler) ListShareAccess(c *gin.Context) {
	id := c.Param("id")

	entries, err := h.share.ListAccess(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("listing share access failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list access log"})
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "accesses": entries})
}

func validStage(stage domain.LifeStage) bool {
	for _, s := range domain.LifeStages {
		if s == stage {
			return true
		}
	}
	return false
}
