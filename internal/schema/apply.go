package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNoDSN is returned when Apply is called without a connection string.
var ErrNoDSN = errors.New("database dsn is empty")

// Apply executes ddl against the PostgreSQL database at dsn. The script is
// sent as one simple-protocol batch, which PostgreSQL runs atomically.
func Apply(ctx context.Context, dsn, ddl string) error {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ErrNoDSN
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
