package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/docsvc/internal/db/storage"
	"github.com/patric-chuzhbe/docsvc/internal/models"
)

func newMockedSession(t *testing.T) (*PostgresDB, storage.Session, sqlmock.Sqlmock) {
	t.Helper()

	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	db := newWithDB(database, time.Second)
	session, err := db.NewSession(context.Background())
	require.NoError(t, err)

	return db, session, mock
}

func TestCreateUser(t *testing.T) {
	_, session, mock := newMockedSession(t)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, username, password_hash, is_active)`)).
		WithArgs("a@x.com", "alice", "hash", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("user-1", createdAt))

	usr := &models.User{Email: "a@x.com", Username: "alice", PasswordHash: "hash", IsActive: true}
	err := session.CreateUser(context.Background(), usr)
	require.NoError(t, err)

	assert.Equal(t, "user-1", usr.ID)
	assert.Equal(t, createdAt, usr.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserUniqueViolation(t *testing.T) {
	_, session, mock := newMockedSession(t)
	pgErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(pgErr)

	err := session.CreateUser(context.Background(), &models.User{Email: "a@x.com", Username: "alice"})
	require.Error(t, err)

	assert.ErrorIs(t, err, storage.ErrConflict)
	var gotPgErr *pgconn.PgError
	assert.True(t, errors.As(err, &gotPgErr), "the driver error should stay in the chain")
}

func TestCreateUserOtherErrorsPassThrough(t *testing.T) {
	_, session, mock := newMockedSession(t)
	boom := errors.New("boom")

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(boom)

	err := session.CreateUser(context.Background(), &models.User{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, storage.ErrConflict)
}

func TestGetUserByEmail(t *testing.T) {
	_, session, mock := newMockedSession(t)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("a@x.com").
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "is_active", "created_at"}).
				AddRow("user-1", "a@x.com", "alice", "hash", true, createdAt),
		)

	usr, err := session.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, &models.User{
		ID:           "user-1",
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: "hash",
		IsActive:     true,
		CreatedAt:    createdAt,
	}, usr)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	_, session, mock := newMockedSession(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	usr, err := session.GetUserByEmail(context.Background(), "nobody@x.com")
	assert.Nil(t, usr)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateDocument(t *testing.T) {
	_, session, mock := newMockedSession(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents (title, content, user_id)`)).
		WithArgs("T", "body", "no-such-user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("doc-1", now, now))

	doc := &models.Document{Title: "T", Content: "body", UserID: "no-such-user"}
	err := session.CreateDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, now, doc.CreatedAt)
	assert.Equal(t, now, doc.UpdatedAt)
}

func TestGetUserDocuments(t *testing.T) {
	_, session, mock := newMockedSession(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	columns := []string{"id", "title", "content", "user_id", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM documents WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(
			sqlmock.NewRows(columns).
				AddRow("doc-1", "T1", "b1", "user-1", now, now).
				AddRow("doc-2", "T2", "b2", "user-1", now, now),
		)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM documents WHERE user_id = $1`)).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows(columns))

	docs, err := session.GetUserDocuments(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "doc-2", docs[1].ID)

	docs, err = session.GetUserDocuments(context.Background(), "user-2")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestSessionCloseReleasesConnection(t *testing.T) {
	db, session, _ := newMockedSession(t)

	require.NoError(t, session.Close())
	assert.Equal(t, 0, db.database.Stats().InUse)
}

func TestMigrate(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	err = newWithDB(database, time.Second).migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "migrations", gotDir)
}

func TestMigrateError(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	boom := errors.New("boom")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	}

	err = newWithDB(database, time.Second).migrate(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func readMigration(t *testing.T, name string) (up, down string) {
	t.Helper()

	raw, err := migrations.ReadFile("migrations/" + name)
	require.NoError(t, err)

	up, down, found := strings.Cut(string(raw), "-- +goose Down")
	require.True(t, found, "%s has no Down section", name)
	require.Contains(t, up, "-- +goose Up")

	return up, down
}

func TestUsersMigration(t *testing.T) {
	up, down := readMigration(t, "00001_create_users.sql")

	assert.Contains(t, up, "email         TEXT NOT NULL UNIQUE")
	assert.Contains(t, up, "username      TEXT NOT NULL UNIQUE")
	assert.NotContains(t, up, "CREATE INDEX", "UNIQUE already indexes email and username")
	assert.Contains(t, down, "DROP TABLE IF EXISTS users")
}

func TestDocumentsMigrationTouchesUpdatedAt(t *testing.T) {
	up, down := readMigration(t, "00002_create_documents.sql")

	assert.NotContains(t, up, "REFERENCES")
	assert.Contains(t, up, "updated_at TIMESTAMPTZ NOT NULL DEFAULT now()")
	assert.Contains(t, up, "NEW.updated_at = now();")
	assert.Contains(t, up, "BEFORE UPDATE ON documents")
	assert.Contains(t, up, "EXECUTE FUNCTION touch_documents_updated_at()")

	begin := strings.Index(up, "-- +goose StatementBegin")
	end := strings.Index(up, "-- +goose StatementEnd")
	require.True(t, begin >= 0 && end > begin, "plpgsql body must be one goose statement")
	assert.Contains(t, up[begin:end], "CREATE OR REPLACE FUNCTION touch_documents_updated_at()")

	assert.Contains(t, down, "DROP TRIGGER IF EXISTS documents_touch_updated_at ON documents")
	assert.Contains(t, down, "DROP FUNCTION IF EXISTS touch_documents_updated_at()")
	assert.Contains(t, down, "DROP TABLE IF EXISTS documents")
}
