// Package postgresdb provides a PostgreSQL-based implementation of the storage
// contracts. Schema migrations are embedded and applied with goose on startup.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolationCode = "23505"

// PostgresDB owns the connection pool. Each request borrows one
// connection from it through NewSession.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// Session is a request-scoped handle pinned to a single pooled connection.
type Session struct {
	conn *sql.Conn
}

// gooseUpContext is swapped out in tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// New connects to PostgreSQL, checks the connection within connectionTimeout
// and brings the schema up to date.
func New(
	ctx context.Context,
	databaseURL string,
	connectionTimeout time.Duration,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	result := newWithDB(database, connectionTimeout)

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w", err)
	}

	if err := result.migrate(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}

	return result, nil
}

func newWithDB(database *sql.DB, connectionTimeout time.Duration) *PostgresDB {
	return &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}
}

func (db *PostgresDB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/migrate(): error while `goose.SetDialect()` calling: %w", err)
	}

	if err := gooseUpContext(ctx, db.database, "migrations"); err != nil {
		return fmt.Errorf("in internal/db/postgresdb/postgresdb.go/migrate(): error while `goose.UpContext()` calling: %w", err)
	}

	return nil
}

// NewSession reserves a connection from the pool for the caller.
func (db *PostgresDB) NewSession(ctx context.Context) (storage.Session, error) {
	conn, err := db.database.Conn(ctx)
	if err != nil {
		return nil, err
	}

	return &Session{conn: conn}, nil
}

// Ping verifies connectivity with the database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

// CreateUser inserts usr and fills in the generated id and created_at.
// A duplicate email or username yields an error wrapping storage.ErrConflict.
func (s *Session) CreateUser(ctx context.Context, usr *models.User) error {
	row := s.conn.QueryRowContext(
		ctx,
		`
			INSERT INTO users (email, username, password_hash, is_active)
				VALUES ($1, $2, $3, $4)
				RETURNING id, created_at
		`,
		usr.Email,
		usr.Username,
		usr.PasswordHash,
		usr.IsActive,
	)

	err := row.Scan(&usr.ID, &usr.CreatedAt)
	if err != nil {
		return translateError(err)
	}

	return nil
}

// GetUserByEmail returns storage.ErrNotFound when no user has that email.
func (s *Session) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.conn.QueryRowContext(
		ctx,
		`SELECT id, email, username, password_hash, is_active, created_at FROM users WHERE email = $1`,
		email,
	)

	usr := &models.User{}
	err := row.Scan(&usr.ID, &usr.Email, &usr.Username, &usr.PasswordHash, &usr.IsActive, &usr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return usr, nil
}

// CreateDocument inserts doc and fills in id, created_at and updated_at.
func (s *Session) CreateDocument(ctx context.Context, doc *models.Document) error {
	row := s.conn.QueryRowContext(
		ctx,
		`
			INSERT INTO documents (title, content, user_id)
				VALUES ($1, $2, $3)
				RETURNING id, created_at, updated_at
		`,
		doc.Title,
		doc.Content,
		doc.UserID,
	)

	return row.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

// GetUserDocuments returns the documents filed under userID in no particular order.
func (s *Session) GetUserDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	rows, err := s.conn.QueryContext(
		ctx,
		`SELECT id, title, content, user_id, created_at, updated_at FROM documents WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.Document{}
	for rows.Next() {
		var doc models.Document
		err = rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.UserID, &doc.CreatedAt, &doc.UpdatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %w", storage.ErrConflict, err)
	}

	return err
}
