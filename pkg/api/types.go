package api

import (
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	// ok when no index failed, degraded otherwise
	Status    string        `json:"status" example:"ok"`
	Timestamp time.Time     `json:"timestamp"`
	Indexes   []IndexStatus `json:"indexes"`
}

// IndexStatus is the short status of one managed index.
type IndexStatus struct {
	Name       string         `json:"name" example:"pools"`
	Status     indexer.Status `json:"status" example:"live"`
	CursorSlot uint64         `json:"cursor_slot" example:"4492799"`
	Healthy    bool           `json:"healthy"`
}

// IndexListResponse lists every registered managed index.
type IndexListResponse struct {
	Indexes []indexer.Registration `json:"indexes"`
	Total   int                    `json:"total"`
}
