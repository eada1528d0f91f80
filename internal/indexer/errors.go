package indexer

import (
	"errors"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

var (
	// ErrDuplicateName is returned by AddIndex when an active registration already uses the name.
	ErrDuplicateName = errors.New("duplicate index name")

	// ErrAlreadyRunning is returned by Run when called more than once.
	ErrAlreadyRunning = errors.New("chain indexer already running")

	// ErrStopped is returned when registering after the indexer shut down.
	ErrStopped = errors.New("chain indexer stopped")

	// ErrUnknownIndex is returned for names that were never registered.
	ErrUnknownIndex = errors.New("unknown index")

	// ErrNotFailed is returned by Restart for registrations that are not failed.
	ErrNotFailed = errors.New("index is not failed")

	// ErrHandlerFailed matches every HandlerError.
	ErrHandlerFailed = errors.New("index handler failed")

	// ErrCursorStore matches every CursorStoreError.
	ErrCursorStore = errors.New("cursor store failure")
)

// DuplicateNameError names the index that is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("index %q is already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// HandlerError is a failed HandleTx or HandleRollback call.
type HandlerError struct {
	Index string
	Event chain.Event
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("index %s failed to handle %s: %v", e.Index, e.Event, e.Cause)
}

func (e *HandlerError) Unwrap() error { return e.Cause }

func (e *HandlerError) Is(target error) bool { return target == ErrHandlerFailed }

// CursorStoreError reports cursor saves that kept failing.
type CursorStoreError struct {
	Index       string
	Consecutive int
	Cause       error
}

func (e *CursorStoreError) Error() string {
	return fmt.Sprintf("index %s failed to save its cursor %d times in a row: %v", e.Index, e.Consecutive, e.Cause)
}

func (e *CursorStoreError) Unwrap() error { return e.Cause }

func (e *CursorStoreError) Is(target error) bool { return target == ErrCursorStore }
