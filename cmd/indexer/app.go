package main

import (
	"context"
	"fmt"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/cursor"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/db"
	internalindexer "github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/metrics"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/process"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/feed"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/journal"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/memlog"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/api"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/upstream"
)

// app holds everything the binary runs, wired from the configuration.
type app struct {
	process *process.Process
	indexer *internalindexer.ChainIndexer
	closers []func() error
	log     *logger.Logger

	// indexes are closed by the chain indexer once it ran
	indexes []indexer.Closer
	ran     bool
}

// newApp opens the upstream and the cursor store, creates and registers every
// configured index and hosts all long-running parts in one process.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *app, err error) {
	a := &app{process: process.New(log), log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	componentLog := func(component string) (*logger.Logger, error) {
		l, err := logger.NewComponentLoggerFromConfig(component, cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s logger: %w", component, err)
		}
		return l, nil
	}

	source, err := a.openUpstream(cfg, componentLog)
	if err != nil {
		return nil, err
	}

	storeLog, err := componentLog(common.ComponentCursorStore)
	if err != nil {
		return nil, err
	}
	store, err := cursor.New(ctx, cfg.CursorStore, cfg.Upstream.Maintenance, storeLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	if m, ok := store.(interface{ Maintenance() db.Maintenance }); ok {
		if err := a.process.Register(maintenanceUnit(common.ComponentCursorStore, m.Maintenance())); err != nil {
			return nil, err
		}
	}

	indexerLog, err := componentLog(common.ComponentChainIndexer)
	if err != nil {
		return nil, err
	}
	a.indexer = internalindexer.New(store, source, cfg.Indexer, indexerLog)

	if err := a.addIndexes(ctx, cfg.Indexes, indexerLog); err != nil {
		return nil, err
	}
	if err := a.process.Register(a.indexer); err != nil {
		return nil, err
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsLog, err := componentLog(common.ComponentMetrics)
		if err != nil {
			return nil, err
		}
		if err := a.process.Register(metrics.NewServer(cfg.Metrics, metricsLog)); err != nil {
			return nil, err
		}
	}

	if cfg.API != nil {
		apiLog, err := componentLog(common.ComponentAPI)
		if err != nil {
			return nil, err
		}
		if err := a.process.Register(api.NewServer(cfg.API, a.indexer, apiLog)); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// openUpstream opens the configured event source and registers the units that feed and maintain it.
func (a *app) openUpstream(cfg *config.Config,
	componentLog func(string) (*logger.Logger, error)) (upstream.Source, error) {
	if cfg.Upstream.Kind == config.UpstreamMemory {
		a.log.Warn("Using the in-memory upstream: nothing feeds it, indexes only replay what it holds")
		log := memlog.New()
		a.closers = append(a.closers, log.Close)
		return log, nil
	}

	journalLog, err := componentLog(common.ComponentJournal)
	if err != nil {
		return nil, err
	}
	j, err := journal.New(cfg.Upstream, journalLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	a.closers = append(a.closers, j.Close)

	if err := a.process.Register(j); err != nil {
		return nil, err
	}

	if cfg.Upstream.FeedURL == "" {
		a.log.Info("No feed_url configured, the journal is read only")
		return j, nil
	}

	feedLog, err := componentLog(common.ComponentFeed)
	if err != nil {
		return nil, err
	}
	f, err := feed.New(cfg.Upstream, j, feedLog)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}
	if err := a.process.Register(f); err != nil {
		return nil, err
	}

	return j, nil
}

// addIndexes creates every configured index and registers it with the chain indexer.
func (a *app) addIndexes(ctx context.Context, indexes []config.IndexConfig, log *logger.Logger) error {
	a.log.Infof("Registering %d index(es)...", len(indexes))

	for _, idxCfg := range indexes {
		start, err := idxCfg.Start()
		if err != nil {
			return fmt.Errorf("index %s: %w", idxCfg.Name, err)
		}

		idx, err := indexer.Create(idxCfg, log)
		if err != nil {
			return err
		}
		if closer, ok := idx.(indexer.Closer); ok {
			a.indexes = append(a.indexes, closer)
		}

		if _, err := a.indexer.AddIndex(ctx, idx, start, idxCfg.ForceRebuild); err != nil {
			return fmt.Errorf("failed to register index %s: %w", idxCfg.Name, err)
		}

		reg, _ := a.indexer.Registration(idxCfg.Name)
		a.log.Infof("✓ Registered index %s (type: %s, from %s)", idxCfg.Name, idxCfg.Type, reg.Cursor)
	}

	return nil
}

// run hosts every unit until ctx is done or one of them fails.
func (a *app) run(ctx context.Context) error {
	a.ran = true
	return a.process.Run(ctx)
}

// close releases the resources opened by newApp, most recent first.
func (a *app) close() {
	if !a.ran {
		for _, idx := range a.indexes {
			if err := idx.Close(); err != nil {
				a.log.Warnf("failed to close index: %v", err)
			}
		}
	}
	a.indexes = nil

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnf("failed to close resource: %v", err)
		}
	}
	a.closers = nil
}

// maintenanceUnit runs m for as long as the process runs.
func maintenanceUnit(owner string, m db.Maintenance) process.Unit {
	return process.UnitFunc{
		UnitName: owner + "-" + common.ComponentMaintenance,
		Fn: func(ctx context.Context) error {
			if err := m.Start(ctx); err != nil {
				return fmt.Errorf("failed to start %s maintenance: %w", owner, err)
			}
			<-ctx.Done()
			return m.Stop()
		},
	}
}
