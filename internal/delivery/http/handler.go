package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eanfill/backend/internal/domain"
)

// Autofiller runs the resolution pipeline for one query
type Autofiller interface {
	Autofill(ctx context.Context, query *domain.ProductQuery) (*domain.ProductRecord, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	autofill Autofiller
}

// NewHandler creates a new HTTP handler
func NewHandler(autofill Autofiller) *Handler {
	return &Handler{autofill: autofill}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "eanfill-backend",
		"version": "1.0.0",
	})
}

// Autofill resolves product attributes for a barcode passed as the `ean`
// (or legacy `ean13`) query parameter, optionally seeded with `name`.
func (h *Handler) Autofill(c *gin.Context) {
	started := time.Now()

	identifier := c.Query("ean")
	if identifier == "" {
		identifier = c.Query("ean13")
	}

	query := &domain.ProductQuery{
		Identifier: identifier,
		KnownName:  c.Query("name"),
	}

	record, err := h.autofill.Autofill(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			log.Printf("[autofill] invalid input ean=%q", identifier)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parâmetros inválidos"})
			return
		}
		log.Printf("[autofill] error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha interna no autofill"})
		return
	}

	log.Printf("[autofill] ok in %s ean=%s sources=%d", time.Since(started), identifier, len(record.Sources))
	c.JSON(http.StatusOK, record)
}
