package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator   = "-- +migrate Up"
	downMarker        = "-- +migrate Down"
	dbPrefixReplacer  = "/*dbprefix*/"
	NoLimitMigrations = 0 // indicate that there is no limit on the number of migrations to run
)

// Migration is one schema change. SQL holds an optional "-- +migrate Down" section
// followed by the "-- +migrate Up" section. Prefix namespaces both the migration id and
// every /*dbprefix*/ placeholder, so several components can share one database file.
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}

// RunMigrationsDB applies every pending migration.
func RunMigrationsDB(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return RunMigrationsDBExtended(log, db, migrations, migrate.Up, NoLimitMigrations)
}

// RunMigrationsDBExtended is an extended version of RunMigrationsDB that allows
// dir: can be migrate.Up or migrate.Down
// maxMigrations: Will apply at most `max` migrations. Pass 0 for no limit
func RunMigrationsDBExtended(log *logger.Logger,
	db *sql.DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int) error {
	source := &migrate.MemoryMigrationSource{}
	ids := make([]string, 0, len(migrations))

	for _, m := range migrations {
		parsed, err := m.parse()
		if err != nil {
			return err
		}
		source.Migrations = append(source.Migrations, parsed)
		ids = append(ids, parsed.Id)
	}

	// the migration table is shared by every prefix, so unknown ids belong to someone else
	migrate.SetIgnoreUnknown(true)

	log.Debugf("running migrations (max %d/%d): %s", maxMigrations, len(ids), strings.Join(ids, ", "))

	applied, err := migrate.ExecMax(db, "sqlite3", source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migrations (max %d/%d) %s: %w",
			maxMigrations, len(ids), strings.Join(ids, ", "), err)
	}

	log.Infof("successfully ran %d migrations from: %s", applied, strings.Join(ids, ", "))
	return nil
}

func (m Migration) parse() (*migrate.Migration, error) {
	prefixed := strings.ReplaceAll(m.SQL, dbPrefixReplacer, m.Prefix)

	down, up, found := strings.Cut(prefixed, UpDownSeparator)
	if !found {
		return nil, fmt.Errorf("migration %s missing '%s' separator", m.ID, UpDownSeparator)
	}

	if _, after, ok := strings.Cut(down, downMarker); ok {
		down = after
	}

	migration := &migrate.Migration{
		Id: m.Prefix + m.ID,
		Up: []string{strings.TrimSpace(up)},
	}
	if down = strings.TrimSpace(down); down != "" {
		migration.Down = []string{down}
	}

	return migration, nil
}
