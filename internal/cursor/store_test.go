package cursor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(b byte) chain.BlockHash {
	var h chain.BlockHash
	for i := range h {
		h[i] = b
	}
	return h
}

// testStoreContract runs the behaviour every backend must share.
func testStoreContract(t *testing.T, store cursor.ClosableStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "never-saved")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, "pools", chain.Origin()))
	p, ok, err := store.Load(ctx, "pools")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, p.IsOrigin())

	at100 := chain.Specific(100, hashOf(1))
	require.NoError(t, store.Save(ctx, "pools", at100))
	p, _, err = store.Load(ctx, "pools")
	require.NoError(t, err)
	require.True(t, at100.Equal(p))

	// a rollback moves the cursor down again
	at80 := chain.Specific(80, hashOf(2))
	require.NoError(t, store.Save(ctx, "pools", at80))
	p, _, err = store.Load(ctx, "pools")
	require.NoError(t, err)
	require.True(t, at80.Equal(p))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("index-%d", i)
			for slot := range uint64(20) {
				assert.NoError(t, store.Save(ctx, name, chain.Specific(slot+1, hashOf(byte(i)))))
			}
		}()
	}
	wg.Wait()

	for i := range 8 {
		p, ok, err := store.Load(ctx, fmt.Sprintf("index-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, chain.Specific(20, hashOf(byte(i))).Equal(p))
	}

	if lister, ok := store.(cursor.Lister); ok {
		all, err := lister.List(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(all), 9)
		require.True(t, at80.Equal(all["pools"]))
	}
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	testStoreContract(t, NewMemoryStore())

	seeded := NewMemoryStore(Entry{Name: "wallet", Point: chain.Specific(7, hashOf(7))})
	p, ok, err := seeded.Load(context.Background(), "wallet")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), p.Slot())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	dbCfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "cursors.db")}
	dbCfg.ApplyDefaults()

	store, err := NewSQLiteStore(dbCfg, nil, logger.NewNopLogger())
	require.NoError(t, err)

	testStoreContract(t, store)
	require.NoError(t, store.Close())

	// cursors survive a reopen
	reopened, err := NewSQLiteStore(dbCfg, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	p, ok, err := reopened.Load(context.Background(), "pools")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, chain.Specific(80, hashOf(2)).Equal(p))
}

func TestNew_Backends(t *testing.T) {
	t.Parallel()

	store, err := New(context.Background(), config.CursorStoreConfig{Backend: config.CursorBackendMemory},
		nil, logger.NewNopLogger())
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = New(context.Background(), config.CursorStoreConfig{Backend: "etcd"}, nil, logger.NewNopLogger())
	require.ErrorContains(t, err, "unknown cursor store backend")
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("INDEXER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("INDEXER_TEST_REDIS_URL not set")
	}

	store, err := NewRedisStore(context.Background(), url,
		fmt.Sprintf("chain-indexer-test:%d", time.Now().UnixNano()), 5*time.Second, logger.NewNopLogger())
	require.NoError(t, err)
	defer store.Close()

	testStoreContract(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("INDEXER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("INDEXER_TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresStore(context.Background(), dsn, 5*time.Second, logger.NewNopLogger())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`DELETE FROM ` + store.table)
	require.NoError(t, err)

	testStoreContract(t, store)
}
