package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	internalindexer "github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// IndexRegistry gives access to the registrations of the chain indexer.
type IndexRegistry interface {
	Registrations() []indexer.Registration
	Registration(name string) (indexer.Registration, bool)
	Restart(ctx context.Context, name string) error
}

// Handler handles HTTP requests for the API.
type Handler struct {
	registry IndexRegistry
	log      *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(registry IndexRegistry, log *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		log:      log,
	}
}

// ListIndexes returns every registered managed index.
// @Summary List all indexes
// @Description Get the registration, status and cursor of every managed index
// @Tags Indexes
// @Produce json
// @Success 200 {object} IndexListResponse "List of indexes"
// @Router /indexes [get]
func (h *Handler) ListIndexes(w http.ResponseWriter, r *http.Request) {
	regs := h.registry.Registrations()
	if regs == nil {
		regs = []indexer.Registration{}
	}

	respondJSON(w, http.StatusOK, IndexListResponse{Indexes: regs, Total: len(regs)})
}

// GetIndex returns one managed index.
// @Summary Get an index
// @Description Get the registration, status and cursor of one managed index
// @Tags Indexes
// @Produce json
// @Param name path string true "Index name"
// @Success 200 {object} indexer.Registration "Index registration"
// @Failure 404 {object} ErrorResponse "Index not found"
// @Router /indexes/{name} [get]
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	reg, ok := h.registry.Registration(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("index '%s' not found", name))
		return
	}

	respondJSON(w, http.StatusOK, reg)
}

// RestartIndex resumes a failed index from its persisted cursor.
// @Summary Restart a failed index
// @Description Resume a failed managed index from its last persisted cursor
// @Tags Indexes
// @Produce json
// @Param name path string true "Index name"
// @Success 202 {object} indexer.Registration "Index restarted"
// @Failure 404 {object} ErrorResponse "Index not found"
// @Failure 409 {object} ErrorResponse "Index is not failed"
// @Failure 503 {object} ErrorResponse "Indexer is shutting down"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexes/{name}/restart [post]
func (h *Handler) RestartIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	err := h.registry.Restart(r.Context(), name)
	switch {
	case err == nil:
	case errors.Is(err, internalindexer.ErrUnknownIndex):
		respondError(w, http.StatusNotFound, fmt.Sprintf("index '%s' not found", name))
		return
	case errors.Is(err, internalindexer.ErrNotFailed):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, internalindexer.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		h.log.Errorf("Failed to restart index %s: %v", name, err)
		respondError(w, http.StatusInternalServerError, "failed to restart index")
		return
	}

	h.log.Infof("Index %s restarted through the API", name)

	reg, _ := h.registry.Registration(name)
	respondJSON(w, http.StatusAccepted, reg)
}

// Health returns the health status of the API and all indexes.
// @Summary Health check
// @Description Check the health status of the API and all managed indexes
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "API and index health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	regs := h.registry.Registrations()

	response := HealthResponse{
		Status:    healthOK,
		Timestamp: time.Now(),
		Indexes:   make([]IndexStatus, 0, len(regs)),
	}

	for _, reg := range regs {
		healthy := reg.Status != indexer.StatusFailed
		if !healthy {
			response.Status = healthDegraded
		}

		response.Indexes = append(response.Indexes, IndexStatus{
			Name:       reg.Name,
			Status:     reg.Status,
			CursorSlot: reg.Cursor.Slot(),
			Healthy:    healthy,
		})
	}

	respondJSON(w, http.StatusOK, response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so a failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
