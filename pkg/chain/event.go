package chain

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates the two kinds of chain events.
type EventKind string

const (
	EventApply    EventKind = "apply"
	EventRollback EventKind = "rollback"
)

// Event is either Apply(block, tx) or Rollback(block), where the rollback
// block is the target the chain reverted to.
//
// Seq is the position of the event in the upstream log. Sources number events
// densely starting at 1; a zero Seq marks an event not yet appended anywhere.
//
// PrunedBelow is set by the log on a rollback whose target lies below the
// history it retained when the rollback arrived. It holds that retention horizon.
type Event struct {
	Seq         uint64    `json:"seq,omitempty"`
	Kind        EventKind `json:"kind"`
	Block       BlockInfo `json:"block"`
	Tx          *Tx       `json:"tx,omitempty"`
	PrunedBelow uint64    `json:"pruned_below,omitempty"`
}

// ApplyEvent creates an event applying tx in block.
func ApplyEvent(block BlockInfo, tx Tx) Event {
	return Event{Kind: EventApply, Block: block, Tx: &tx}
}

// RollbackEvent creates an event reverting the chain to target.
func RollbackEvent(target BlockInfo) Event {
	return Event{Kind: EventRollback, Block: target}
}

// RollbackToOrigin creates a rollback to before the first block.
// Its block info is the zero value, whose point is reported as Origin.
func RollbackToOrigin() Event {
	return Event{Kind: EventRollback}
}

func (e Event) IsApply() bool { return e.Kind == EventApply }

func (e Event) IsRollback() bool { return e.Kind == EventRollback }

// BeyondHistory reports whether e is a rollback below the history its log retained.
func (e Event) BeyondHistory() bool { return e.IsRollback() && e.PrunedBelow > 0 }

// Point returns the position of the event: the applied block, or the rollback target.
func (e Event) Point() Point {
	return e.Block.Point()
}

// Validate checks the shape of an event received from outside the process.
func (e Event) Validate() error {
	switch e.Kind {
	case EventApply:
		if e.Tx == nil {
			return fmt.Errorf("apply event at %s carries no transaction", e.Point())
		}
		if e.Block.IsOrigin() {
			return fmt.Errorf("apply event carries no block")
		}
		if e.PrunedBelow != 0 {
			return fmt.Errorf("apply event at %s carries a retention horizon", e.Point())
		}
	case EventRollback:
		if e.Tx != nil {
			return fmt.Errorf("rollback event to %s carries a transaction", e.Point())
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}

	return nil
}

func (e Event) String() string {
	if e.IsRollback() || e.Tx == nil {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Point())
	}

	return fmt.Sprintf("apply(%s, tx %d)", e.Point(), e.Tx.Index)
}

// DecodeEvent parses and validates a JSON encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}

	if err := ev.Validate(); err != nil {
		return Event{}, err
	}

	return ev, nil
}
