package indexer

import (
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a registration.
type Status string

const (
	// StatusBackfilling means the index replays history towards the tip
	StatusBackfilling Status = "backfilling"
	// StatusLive means the index consumes the shared live tail
	StatusLive Status = "live"
	// StatusFailed means the index stopped on an unrecoverable error
	StatusFailed Status = "failed"
	// StatusStopped means the indexer shut down gracefully
	StatusStopped Status = "stopped"
)

// Active reports whether a registration in this state still holds its name.
func (s Status) Active() bool {
	return s == StatusBackfilling || s == StatusLive
}

// RegistrationID identifies one registration of a managed index.
type RegistrationID string

// NewRegistrationID returns a random registration id.
func NewRegistrationID() RegistrationID {
	return RegistrationID(uuid.NewString())
}

func (id RegistrationID) String() string { return string(id) }

// Registration is a point-in-time snapshot of a registered managed index.
// @Description Status of one managed index
type Registration struct {
	ID           RegistrationID `json:"id" example:"5f2b6c1e-8d8e-4a51-9a3c-0c5b7c6f3a10"`
	Name         string         `json:"name" example:"pools"`
	StartPoint   chain.Point    `json:"start_point" swaggertype:"string" example:"origin"`
	ForceRebuild bool           `json:"force_rebuild"`
	Status       Status         `json:"status" example:"live"`
	Cursor       chain.Point    `json:"cursor" swaggertype:"string" example:"4492799.f8084c61b6a238acec985b59310b6ecec49c0ab8352249afd7268da5cff2a457"`
	LastError    string         `json:"last_error,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
