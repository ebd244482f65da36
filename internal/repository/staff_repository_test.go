package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStaffRepositoryFindByEmailLowercases(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("s-1", "privacy@example.org", "hash", "Sarah Johnson", string(models.RoleCoordinator), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE email = $1 LIMIT 1")).
		WithArgs("privacy@example.org").
		WillReturnRows(rows)

	staff, err := repo.FindByEmail(context.Background(), "Privacy@Example.org")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, staff.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE id = $1")).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStaffRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staff")).WillReturnResult(sqlmock.NewResult(1, 1))

	staff := &models.Staff{Email: " Admin@Example.org ", FullName: "Admin", Role: models.RoleCoordinator, Active: true}
	require.NoError(t, repo.Upsert(context.Background(), staff))
	assert.NotEmpty(t, staff.ID)
	assert.Equal(t, "admin@example.org", staff.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStaffRepositoryUpsertKeepsIdentity(t *testing.T) {
	repo := NewMemoryStaffRepository()
	ctx := context.Background()

	first := &models.Staff{Email: "analyst@example.org", Role: models.RoleAnalyst}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &models.Staff{Email: "ANALYST@example.org", Role: models.RoleViewer}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	found, err := repo.FindByEmail(ctx, "analyst@example.org")
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, found.Role)

	login := time.Now().UTC()
	require.NoError(t, repo.UpdateLastLogin(ctx, first.ID, login))
	found, err = repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.True(t, login.Equal(*found.LastLogin))
}
