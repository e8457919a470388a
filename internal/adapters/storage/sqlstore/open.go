package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLiteMemory abre una base sqlite efímera (tests, modo demo).
const SQLiteMemory = ":memory:"

type poolOptions struct {
	maxOpen     int
	maxIdle     int
	maxIdleTime time.Duration
	maxLifetime time.Duration
}

// OpenPostgres abre un pool a Postgres usando pgx (database/sql).
func OpenPostgres(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	return open("pgx", dsn, poolOptions{
		maxOpen:     10,
		maxIdle:     5,
		maxIdleTime: 5 * time.Minute,
		maxLifetime: 30 * time.Minute,
	})
}

// OpenSQLite abre la base en path, creando el directorio si hace falta.
func OpenSQLite(path string, busyTimeout time.Duration) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != SQLiteMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	// un solo writer; con :memory: además cada conexión sería otra base
	db, err := open("sqlite", path, poolOptions{maxOpen: 1, maxIdle: 1})
	if err != nil {
		return nil, err
	}

	if busyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()))
	}
	if path != SQLiteMemory {
		_, _ = db.Exec("PRAGMA journal_mode = WAL")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	}
	return db, nil
}

func open(driver, dsn string, opts poolOptions) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.maxOpen)
	db.SetMaxIdleConns(opts.maxIdle)
	db.SetConnMaxIdleTime(opts.maxIdleTime)
	db.SetConnMaxLifetime(opts.maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}
