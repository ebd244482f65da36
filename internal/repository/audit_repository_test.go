package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/models"
)

func TestAuditRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{Action: models.AuditActionRequestCreate, Resource: "foi_request"}
	require.NoError(t, repo.CreateAuditLog(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "resource_id", "old_values", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a-1", nil, models.AuditActionRequestStart, "foi_request", "FOI-2024-001", nil, nil, "", "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE resource = $1 AND resource_id = $2 ORDER BY created_at DESC LIMIT 10")).
		WithArgs("foi_request", "FOI-2024-001").
		WillReturnRows(rows)

	logs, err := repo.List(context.Background(), models.AuditLogFilter{Resource: "foi_request", ResourceID: "FOI-2024-001", Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionRequestStart, logs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryAuditRepositoryListNewestFirst(t *testing.T) {
	repo := NewMemoryAuditRepository()
	ctx := context.Background()
	first, second := "FOI-2024-001", "FOI-2024-002"

	require.NoError(t, repo.CreateAuditLog(ctx, &models.AuditLog{Action: models.AuditActionRequestCreate, Resource: "foi_request", ResourceID: &first}))
	require.NoError(t, repo.CreateAuditLog(ctx, &models.AuditLog{Action: models.AuditActionRequestCreate, Resource: "foi_request", ResourceID: &second}))
	require.NoError(t, repo.CreateAuditLog(ctx, &models.AuditLog{Action: models.AuditActionRequestStart, Resource: "foi_request", ResourceID: &first}))

	logs, err := repo.List(ctx, models.AuditLogFilter{ResourceID: first})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionRequestStart, logs[0].Action)
	assert.Equal(t, models.AuditActionRequestCreate, logs[1].Action)
}
