package cursor

import (
	"context"
	"io"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
)

// Store persists the last processed point of every managed index, keyed by index name.
//
// Save may be called concurrently for distinct names. Calls for one name are
// serialized by the dispatch loop owning that index.
type Store interface {
	// Load returns the last saved point for name. ok is false when nothing was ever saved.
	Load(ctx context.Context, name string) (point chain.Point, ok bool, err error)

	// Save durably records point as the cursor of name.
	Save(ctx context.Context, name string, point chain.Point) error
}

// Lister is implemented by stores that can enumerate every saved cursor.
type Lister interface {
	List(ctx context.Context) (map[string]chain.Point, error)
}

// ClosableStore is a Store holding resources such as connections.
type ClosableStore interface {
	Store
	io.Closer
}
