package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/chaintest"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/cursor"
	internalindexer "github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/indexer"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/upstream/memlog"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/stretchr/testify/require"
)

type flakyIndex struct {
	indexer.Base
	broken atomic.Bool
}

func (f *flakyIndex) HandleTx(_ context.Context, block chain.BlockInfo, _ chain.Tx) error {
	if block.Slot == 2 && f.broken.Load() {
		return errors.New("storage offline")
	}
	return nil
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestServer_RunDisabled(t *testing.T) {
	t.Parallel()

	s := NewServer(&config.APIConfig{}, &fakeRegistry{}, logger.NewNopLogger())
	require.Equal(t, "api", s.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Run(ctx))
}

func TestServer_RestartFailedIndex(t *testing.T) {
	log := memlog.New()
	for _, ev := range chaintest.Chain(1, 2, 3) {
		_, err := log.Append(ev)
		require.NoError(t, err)
	}

	ix := internalindexer.New(cursor.NewMemoryStore(), log, config.IndexerConfig{}, logger.NewNopLogger())
	idx := &flakyIndex{Base: indexer.NewBase("pools")}
	idx.broken.Store(true)
	_, err := ix.AddIndex(context.Background(), idx, chain.Origin(), false)
	require.NoError(t, err)

	cfg := &config.APIConfig{Enabled: true}
	cfg.ApplyDefaults()
	s := NewServer(cfg, ix, logger.NewNopLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	indexerDone := make(chan error, 1)
	serverDone := make(chan error, 1)
	go func() { indexerDone <- ix.Run(ctx) }()
	go func() { serverDone <- s.Serve(ctx, listener) }()

	var health HealthResponse
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health") //nolint:noctx
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&health) == nil && health.Status == healthDegraded
	}, 5*time.Second, 5*time.Millisecond)

	var reg indexer.Registration
	require.Equal(t, http.StatusOK, getJSON(t, base+"/api/v1/indexes/pools", &reg))
	require.Equal(t, indexer.StatusFailed, reg.Status)
	require.Contains(t, reg.LastError, "storage offline")

	idx.broken.Store(false)
	resp, err := http.Post(base+"/api/v1/indexes/pools/restart", "application/json", nil) //nolint:noctx
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		var reg indexer.Registration
		return getJSON(t, base+"/api/v1/indexes/pools", &reg) == http.StatusOK &&
			reg.Status == indexer.StatusLive && reg.Cursor.Equal(chaintest.Point(3))
	}, 5*time.Second, 5*time.Millisecond)

	resp, err = http.Post(base+"/api/v1/indexes/pools/restart", "application/json", nil) //nolint:noctx
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	cancel()
	require.NoError(t, <-serverDone)
	require.NoError(t, <-indexerDone)
}
