package upstream

import (
	"errors"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

var (
	// ErrPointNotFound is returned when a replay starts at a pruned or unknown point.
	ErrPointNotFound = errors.New("point not found")

	// ErrRollbackBeyondKnownHistory is returned for rollbacks below the oldest retained block.
	ErrRollbackBeyondKnownHistory = errors.New("rollback beyond known history")

	// ErrOutOfOrder is returned when an appended event does not extend the tip.
	ErrOutOfOrder = errors.New("event out of order")

	// ErrUnavailable marks transient failures to reach the source.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrClosed is returned by readers of a closed source.
	ErrClosed = errors.New("upstream closed")
)

// PointNotFoundError names the point a replay could not start from.
type PointNotFoundError struct {
	Point chain.Point
}

func (e *PointNotFoundError) Error() string {
	return fmt.Sprintf("point %s not found in upstream history", e.Point)
}

func (e *PointNotFoundError) Is(target error) bool {
	return target == ErrPointNotFound
}

// RollbackBeyondKnownHistoryError is a rollback below the retention horizon.
type RollbackBeyondKnownHistoryError struct {
	Target      chain.Point
	PrunedBelow uint64
}

func (e *RollbackBeyondKnownHistoryError) Error() string {
	return fmt.Sprintf("rollback to %s is below the retained history starting at slot %d", e.Target, e.PrunedBelow)
}

func (e *RollbackBeyondKnownHistoryError) Is(target error) bool {
	return target == ErrRollbackBeyondKnownHistory
}

// OutOfOrderError is an event that does not extend the log tip.
type OutOfOrderError struct {
	Tip   chain.Point
	Event chain.Event
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("%s does not extend tip %s", e.Event, e.Tip)
}

func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// UnavailableError wraps a transient failure to reach the source.
type UnavailableError struct {
	Cause error
}

// Unavailable wraps err so that it matches ErrUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}

	return &UnavailableError{Cause: err}
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("upstream unavailable: %v", e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func IsPointNotFound(err error) bool {
	return errors.Is(err, ErrPointNotFound)
}

func IsRollbackBeyondKnownHistory(err error) bool {
	return errors.Is(err, ErrRollbackBeyondKnownHistory)
}
