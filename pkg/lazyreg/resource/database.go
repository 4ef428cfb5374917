package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	lzerrors "github.com/randalmurphal/lazyreg/pkg/lazyreg/errors"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
)

// DatabaseConfig describes the shared database connection.
type DatabaseConfig struct {
	// Driver is the database/sql driver name. Default: "sqlite".
	Driver string
	Host   string
	Port   int
	Name   string
	// DSN is passed to sql.Open. Default: ":memory:".
	DSN string
	// MaxOpenConns caps the pool; zero leaves the driver default.
	// An in-memory SQLite database needs 1 so every query sees the same data.
	MaxOpenConns int
	// Retry governs Connect.
	Retry lzerrors.RetryConfig
}

// Address returns "host:port/name".
func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Name)
}

// Database is a shared database connection.
type Database struct {
	guard     registry.InitGuard
	id        string
	cfg       DatabaseConfig
	db        *sql.DB
	connected atomic.Bool
}

// Init records cfg and opens the connection pool. sql.Open does not dial; use
// Connect for that. A second call after a successful one changes nothing.
func (d *Database) Init(cfg DatabaseConfig) error {
	_, err := d.guard.Do(func() error {
		driver := cfg.Driver
		if driver == "" {
			driver = "sqlite"
		}
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}

		db, err := sql.Open(driver, dsn)
		if err != nil {
			return lzerrors.Permanent(fmt.Errorf("open database: %w", err), "init "+cfg.Address())
		}
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}

		d.id = uuid.NewString()
		d.cfg = cfg
		d.db = db
		return nil
	})
	return err
}

// Connect verifies the connection, retrying transient failures according to
// the configured RetryConfig. An attempt that outlives Retry.AttemptTimeout
// fails with a *lzerrors.TimeoutError. It returns a human-readable status line.
func (d *Database) Connect(ctx context.Context) (string, error) {
	if !d.guard.Initialized() {
		return "", ErrNotInitialized
	}

	res := lzerrors.Retry(ctx, d.cfg.Retry, "connect "+d.cfg.Address(), func(attemptCtx context.Context) (struct{}, error) {
		err := d.ping(attemptCtx)
		// Only the attempt's own deadline is a timeout; a done ctx ends Retry.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return struct{}{}, &lzerrors.TimeoutError{
				Op:       "ping " + d.cfg.Address(),
				Duration: d.cfg.Retry.AttemptTimeout.String(),
			}
		}
		return struct{}{}, err
	})
	if res.Err != nil {
		return "", res.Err
	}

	d.connected.Store(true)
	return "connected to " + d.cfg.Address(), nil
}

func (d *Database) ping(ctx context.Context) error {
	err := d.db.PingContext(ctx)
	if err != nil && isBusy(err) {
		return lzerrors.Transient(err, "ping")
	}
	return err
}

// isBusy reports SQLite lock contention, which clears on its own.
func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

// Connected reports whether Connect has succeeded.
func (d *Database) Connected() bool {
	return d.connected.Load()
}

// Exec runs a statement. It fails with ErrNotConnected before Connect.
func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if !d.Connected() {
		return nil, ErrNotConnected
	}
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// Query runs a query. It fails with ErrNotConnected before Connect.
// The caller must close the returned rows.
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if !d.Connected() {
		return nil, ErrNotConnected
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

// QueryRow runs a query expected to return at most one row.
// It fails with ErrNotConnected before Connect.
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	if !d.Connected() {
		return nil, ErrNotConnected
	}
	return d.db.QueryRowContext(ctx, query, args...), nil
}

// ID returns the identifier assigned by Init.
func (d *Database) ID() string {
	return d.id
}

// Config returns the configuration recorded by the first successful Init.
func (d *Database) Config() DatabaseConfig {
	return d.cfg
}

// Close releases the connection pool.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	d.connected.Store(false)
	return d.db.Close()
}

// OpenDatabase returns a constructor that initializes and connects a
// Database. A failed connect closes the pool before returning.
func OpenDatabase(cfg DatabaseConfig) registry.Constructor[*Database] {
	return func(ctx context.Context) (*Database, error) {
		d := &Database{}
		if err := d.Init(cfg); err != nil {
			return nil, err
		}
		if _, err := d.Connect(ctx); err != nil {
			_ = d.Close()
			return nil, err
		}
		return d, nil
	}
}
