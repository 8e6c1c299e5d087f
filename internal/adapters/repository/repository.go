package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/vncsmyrnk/pollctl/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/pollctl/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/pollctl/internal/core/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenSessions opens the session store for driver, creating its table when
// missing. The caller owns the returned *sql.DB.
func OpenSessions(ctx context.Context, driver, dsn string) (*sql.DB, ports.SessionRepository, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, nil, fmt.Errorf("unsupported session driver %q (use sqlite or postgres)", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s session store: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to reach %s session store: %w", driver, err)
	}

	var repo ports.SessionRepository
	switch driver {
	case DriverSQLite:
		// One writer at a time keeps SQLite from reporting SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		err = sqlite.CreateSchema(ctx, db)
		repo = sqlite.NewSessionRepository(db)
	case DriverPostgres:
		err = postgres.CreateSchema(ctx, db)
		repo = postgres.NewSessionRepository(db)
	}
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}
