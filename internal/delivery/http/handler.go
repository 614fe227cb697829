package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/upclookup/backend/internal/domain"
	"github.com/upclookup/backend/internal/usecase"
)

const (
	serviceName = "upc-lookup-backend"

	// Version is reported by the health endpoint
	Version = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookupService *usecase.LookupService
}

// NewHandler creates a new HTTP handler
func NewHandler(lookupService *usecase.LookupService) *Handler {
	return &Handler{lookupService: lookupService}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": Version,
	})
}

// LookupBarcode handles GET and HEAD /api/lookup-barcode?code=<value>
func (h *Handler) LookupBarcode(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, domain.LookupFailure{Error: "Barcode code is required"})
		return
	}

	if h.lookupService == nil {
		c.JSON(http.StatusNotImplemented, domain.LookupFailure{Error: "Barcode lookup not configured"})
		return
	}

	result, err := h.lookupService.Lookup(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBarcode) {
			c.JSON(http.StatusBadRequest, domain.LookupFailure{Error: "Barcode code is required"})
			return
		}

		log.Error().Err(err).Str("barcode", code).Msg("Error looking up barcode")
		c.JSON(http.StatusInternalServerError, domain.LookupFailure{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
