package migrations

import (
	_ "embed"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/db"
)

//go:embed journal0001.sql
var mig0001 string

// Migrations returns the schema of the event journal.
func Migrations() []db.Migration {
	return []db.Migration{
		{ID: "journal0001.sql", SQL: mig0001},
	}
}
