// Package process hosts the long-running units of the indexer binary.
package process

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Unit is a component that runs until its context is done.
type Unit interface {
	Name() string
	Run(ctx context.Context) error
}

// UnitFunc adapts a function to a Unit.
type UnitFunc struct {
	UnitName string
	Fn       func(ctx context.Context) error
}

func (u UnitFunc) Name() string { return u.UnitName }

func (u UnitFunc) Run(ctx context.Context) error { return u.Fn(ctx) }

// ErrStarted is returned by Register once Run was called.
var ErrStarted = errors.New("process already started")

// Process runs units side by side. The first unit failing stops all the others.
type Process struct {
	log *logger.Logger

	mu      sync.Mutex
	units   []Unit
	started bool
}

func New(log *logger.Logger) *Process {
	return &Process{log: log.WithComponent(common.ComponentProcess)}
}

// Register adds unit to the process. Units must be registered before Run.
func (p *Process) Register(unit Unit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrStarted
	}
	for _, u := range p.units {
		if u.Name() == unit.Name() {
			return fmt.Errorf("unit %s registered twice", unit.Name())
		}
	}

	p.units = append(p.units, unit)

	return nil
}

// Run starts every unit and blocks until all of them returned.
// A unit returning context.Canceled after shutdown was requested exited cleanly.
func (p *Process) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrStarted
	}
	p.started = true
	units := append([]Unit(nil), p.units...)
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, unit := range units {
		g.Go(func() error {
			p.log.Infof("starting %s", unit.Name())
			metrics.ComponentHealthSet(unit.Name(), true)
			defer metrics.ComponentHealthSet(unit.Name(), false)

			err := unit.Run(gctx)
			if err != nil && !stopping(gctx, err) {
				p.log.Errorf("%s failed: %v", unit.Name(), err)
				return fmt.Errorf("%s: %w", unit.Name(), err)
			}

			p.log.Infof("%s stopped", unit.Name())

			return nil
		})
	}

	return g.Wait()
}

func stopping(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}

	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
