package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Schema creates the users table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS users_list_order_idx ON users ((lower(name)) COLLATE "C", name COLLATE "C", id);
`

// The list order must match users.Compare; COLLATE "C" keeps it independent
// of the database locale.
const (
	listUsersQuery = `
		SELECT id, name, created_at
		FROM users
		ORDER BY lower(name) COLLATE "C" ASC, name COLLATE "C" ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	listUsersByLetterQuery = `
		SELECT id, name, created_at
		FROM users
		WHERE upper(left(name, 1)) = $3
		ORDER BY lower(name) COLLATE "C" ASC, name COLLATE "C" ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	createUserQuery = `
		INSERT INTO users (name)
		VALUES ($1)
		RETURNING id, name, created_at
	`
)

// Options tune the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions returns pool settings suitable for a single API instance.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Postgres is a storage handle backed by a database/sql pool. The driver is
// either "pgx" (jackc/pgx stdlib) or "postgres" (lib/pq).
type Postgres struct {
	db     *sql.DB
	driver string
	logger zerolog.Logger
}

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, driver, dsn string, opts Options) (*Postgres, error) {
	switch driver {
	case "pgx", "postgres":
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := log.With().Str("component", "store").Str("driver", driver).Logger()
	logger.Info().Msg("Connected to database")

	return &Postgres{db: db, driver: driver, logger: logger}, nil
}

// EnsureSchema creates the users table if needed.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", describe(err))
	}
	return nil
}

// ListUsers returns one window of users.
func (p *Postgres) ListUsers(ctx context.Context, q Query) ([]users.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q.Letter != "" {
		rows, err = p.db.QueryContext(ctx, listUsersByLetterQuery, q.Limit, q.Offset, q.Letter)
	} else {
		rows, err = p.db.QueryContext(ctx, listUsersQuery, q.Limit, q.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", describe(err))
	}
	defer rows.Close()

	result := make([]users.User, 0, q.Limit)
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", describe(err))
	}

	return result, nil
}

// CreateUser inserts a user and returns the stored row.
func (p *Postgres) CreateUser(ctx context.Context, name string) (users.User, error) {
	var u users.User
	err := p.db.QueryRowContext(ctx, createUserQuery, name).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		return users.User{}, fmt.Errorf("failed to create user: %w", describe(err))
	}
	return u, nil
}

// CreateUsers inserts all names in one transaction. Either every row is
// written or none is.
func (p *Postgres) CreateUsers(ctx context.Context, names []string) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", describe(err))
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (name) VALUES ($1)`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", describe(err))
	}
	defer stmt.Close()

	for i, name := range names {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert user %d: %w", i, describe(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", describe(err))
	}

	return len(names), nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	p.logger.Info().Msg("Database connection closed")
	return nil
}

// describe attaches the SQLSTATE of driver errors so logs carry the code
// regardless of which driver produced it.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}
