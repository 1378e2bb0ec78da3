// Package db is the persistence gateway: it opens the connection pool named
// by DATABASE_URL, creates the scan_events table and gives each caller its
// own transaction-scoped repository.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/aegis-api/internal/domain/events"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/dbx"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/mysql"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/postgres"
	"github.com/bryanwahyu/aegis-api/internal/infra/db/sqlite"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// Target is a parsed DATABASE_URL: which driver to load and the DSN it expects.
type Target struct {
	Dialect Dialect
	Driver  string
	DSN     string
}

// ParseURL maps a database URL onto a driver. Scheme suffixes such as
// "postgresql+psycopg2" are ignored so URLs shared with other tooling work.
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse database url: %w", err)
	}
	scheme, _, _ := strings.Cut(strings.ToLower(u.Scheme), "+")

	switch scheme {
	case "postgres", "postgresql":
		u.Scheme = "postgres"
		return Target{Dialect: Postgres, Driver: "postgres", DSN: u.String()}, nil
	case "mysql", "mariadb":
		dsn, err := mysql.DSN(u)
		if err != nil {
			return Target{}, err
		}
		return Target{Dialect: MySQL, Driver: "mysql", DSN: dsn}, nil
	case "sqlite", "sqlite3":
		// sqlite:// is in-memory, sqlite:///rel.db is relative, sqlite:////abs.db is absolute
		path := strings.TrimPrefix(raw[len(u.Scheme)+1:], "//")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			path = ":memory:"
		}
		return Target{Dialect: SQLite, Driver: "sqlite", DSN: path}, nil
	default:
		return Target{}, fmt.Errorf("unsupported database url scheme %q", u.Scheme)
	}
}

// Gateway owns the connection pool. It is safe for concurrent use.
type Gateway struct {
	db      *sql.DB
	dialect Dialect
	repo    func(dbx.DBTX) domain.Repository
}

// New wraps an already opened pool.
func New(db *sql.DB, d Dialect) *Gateway {
	g := &Gateway{db: db, dialect: d}
	switch d {
	case MySQL:
		g.repo = func(tx dbx.DBTX) domain.Repository { return mysql.NewEventRepository(tx) }
	case SQLite:
		g.repo = func(tx dbx.DBTX) domain.Repository { return sqlite.NewEventRepository(tx) }
	default:
		g.repo = func(tx dbx.DBTX) domain.Repository { return postgres.NewEventRepository(tx) }
	}
	return g
}

// Open connects to databaseURL and verifies the server answers. Pool sizes
// are left at database/sql defaults, except for SQLite which is limited to a
// single connection (one writer, and an in-memory database lives per connection).
func Open(ctx context.Context, databaseURL string) (*Gateway, error) {
	t, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(t.Driver, t.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.Dialect, err)
	}
	if t.Dialect == SQLite {
		db.SetMaxOpenConns(1)
	}

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", t.Dialect, err)
	}
	return New(db, t.Dialect), nil
}

func (g *Gateway) Dialect() Dialect { return g.dialect }

// EnsureSchema creates the scan_events table and indexes when missing.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema(g.dialect) {
		if _, err := g.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// WithTx runs fn inside one transaction on a pooled connection.
func (g *Gateway) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, g.db, nil, fn)
}

// Do implements domain.UnitOfWork.
func (g *Gateway) Do(ctx context.Context, fn func(repo domain.Repository) error) error {
	return g.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(g.repo(tx))
	})
}

// Ping checks the database is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return g.db.PingContext(ctx)
}

func (g *Gateway) Close() error { return g.db.Close() }
