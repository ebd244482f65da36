package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

var foiRequestMockColumns = []string{
	"id", "requester_name", "request_type", "date_received", "due_date", "status", "assigned_to",
	"legislation_type", "description", "third_party_notification", "fee_estimate", "extension_granted", "created_at", "updated_at",
}

func newFOIRequestRepoMock(t *testing.T) (*FOIRequestRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewFOIRequestRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func foiRequestRow(id string, status models.RequestStatus, due time.Time, extended bool) *sqlmock.Rows {
	now := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(foiRequestMockColumns).AddRow(
		id, "John Smith", string(models.RequestTypePersonalHealth),
		time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), due,
		string(status), "Sarah Johnson", string(models.LegislationPHIPA),
		"records", false, 0, extended, now, now,
	)
}

func TestFOIRequestRepositoryCreateLocksAndCounts(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE foi_requests")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM foi_requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO foi_requests")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := &models.FOIRequest{
		RequesterName:   "Jane Doe",
		RequestType:     models.RequestTypeAuditLogs,
		DateReceived:    models.MustParseDate("2025-01-10"),
		DueDate:         models.MustParseDate("2025-02-09"),
		Status:          models.RequestStatusPendingReview,
		LegislationType: models.LegislationPHIPA,
	}
	err := repo.Create(context.Background(), record, func(seq int) string {
		require.Equal(t, 4, seq)
		return "FOI-2025-004"
	})
	require.NoError(t, err)
	require.Equal(t, "FOI-2025-004", record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryCreateRollsBackOnInsertFailure(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE foi_requests")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM foi_requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO foi_requests")).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.FOIRequest{}, func(seq int) string { return "FOI-2025-001" })
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryCreateMapsUniqueViolationToConflict(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("LOCK TABLE foi_requests")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM foi_requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO foi_requests")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	record := &models.FOIRequest{}
	err := repo.Create(context.Background(), record, func(seq int) string { return "FOI-2025-002" })
	require.ErrorIs(t, err, appErrors.ErrConflict)
	require.Contains(t, err.Error(), "FOI-2025-002")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryInsertMapsUniqueViolationToConflict(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO foi_requests")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Insert(context.Background(), &models.FOIRequest{ID: "FOI-2024-001"})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryGetByID(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM foi_requests WHERE id = $1")).
		WithArgs("FOI-2024-001").
		WillReturnRows(foiRequestRow("FOI-2024-001", models.RequestStatusInProgress, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), false))

	record, err := repo.GetByID(context.Background(), "FOI-2024-001")
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusInProgress, record.Status)
	require.Equal(t, "2024-12-01", record.DueDate.String())
	require.Equal(t, models.LegislationPHIPA, record.LegislationType)

	mock.ExpectQuery(regexp.QuoteMeta("FROM foi_requests WHERE id = $1")).
		WithArgs("FOI-2024-999").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "FOI-2024-999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryListOrdersBySequence(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM foi_requests ORDER BY seq ASC")).
		WillReturnRows(foiRequestRow("FOI-2024-001", models.RequestStatusInProgress, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), false))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryApplyTransitionGuardsStatusAndExtension(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	now := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	due := models.MustParseDate("2024-12-31")
	notExtended, granted := false, true

	mock.ExpectQuery(`UPDATE foi_requests SET status = \$1, updated_at = \$2, due_date = \$3, extension_granted = \$4 WHERE id = \$5 AND status IN \(\$6\) AND extension_granted = \$7 RETURNING`).
		WithArgs(models.RequestStatusExtended, now, due, true, "FOI-2024-001", models.RequestStatusInProgress, false).
		WillReturnRows(foiRequestRow("FOI-2024-001", models.RequestStatusExtended, due.Time(), true))

	updated, err := repo.ApplyTransition(context.Background(), models.FOITransition{
		ID:               "FOI-2024-001",
		FromStatus:       []models.RequestStatus{models.RequestStatusInProgress},
		RequireExtension: &notExtended,
		ToStatus:         models.RequestStatusExtended,
		DueDate:          &due,
		ExtensionGranted: &granted,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
	require.True(t, updated.ExtensionGranted)
	require.Equal(t, "2024-12-31", updated.DueDate.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFOIRequestRepositoryApplyTransitionNoRows(t *testing.T) {
	repo, mock, cleanup := newFOIRequestRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE foi_requests SET status = $1")).
		WillReturnRows(sqlmock.NewRows(foiRequestMockColumns))

	_, err := repo.ApplyTransition(context.Background(), models.FOITransition{
		ID:         "FOI-2024-001",
		FromStatus: []models.RequestStatus{models.RequestStatusPendingReview},
		ToStatus:   models.RequestStatusInProgress,
		UpdatedAt:  time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
