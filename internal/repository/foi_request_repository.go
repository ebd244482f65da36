package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

const uniqueViolation = "23505"

const foiRequestColumns = `id, requester_name, request_type, date_received, due_date, status, assigned_to,
       legislation_type, description, third_party_notification, fee_estimate, extension_granted, created_at, updated_at`

const insertFOIRequestQuery = `INSERT INTO foi_requests
	(id, requester_name, request_type, date_received, due_date, status, assigned_to, legislation_type, description,
	 third_party_notification, fee_estimate, extension_granted, created_at, updated_at)
	VALUES (:id, :requester_name, :request_type, :date_received, :due_date, :status, :assigned_to, :legislation_type, :description,
	 :third_party_notification, :fee_estimate, :extension_granted, :created_at, :updated_at)`

// FOIRequestRepository persists FOI requests in PostgreSQL.
type FOIRequestRepository struct {
	db *sqlx.DB
}

// NewFOIRequestRepository constructs the repository.
func NewFOIRequestRepository(db *sqlx.DB) *FOIRequestRepository {
	return &FOIRequestRepository{db: db}
}

// Create assigns the next identifier and inserts the record. The table lock
// serialises concurrent creators so two requests never share a sequence.
func (r *FOIRequestRepository) Create(ctx context.Context, record *models.FOIRequest, newID models.RequestIDFunc) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create foi request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `LOCK TABLE foi_requests IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock foi requests: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM foi_requests`); err != nil {
		return fmt.Errorf("count foi requests: %w", err)
	}
	record.ID = newID(count + 1)
	if _, err := tx.NamedExecContext(ctx, insertFOIRequestQuery, record); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clonef(appErrors.ErrConflict, "foi request %s already exists", record.ID)
		}
		return fmt.Errorf("create foi request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit foi request: %w", err)
	}
	return nil
}

// Insert stores a record whose identifier is already set.
func (r *FOIRequestRepository) Insert(ctx context.Context, record *models.FOIRequest) error {
	if _, err := r.db.NamedExecContext(ctx, insertFOIRequestQuery, record); err != nil {
		if isUniqueViolation(err) {
			return appErrors.Clonef(appErrors.ErrConflict, "foi request %s already exists", record.ID)
		}
		return fmt.Errorf("insert foi request %s: %w", record.ID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Count returns the number of stored requests.
func (r *FOIRequestRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM foi_requests`); err != nil {
		return 0, fmt.Errorf("count foi requests: %w", err)
	}
	return count, nil
}

// GetByID fetches a request by identifier. It returns sql.ErrNoRows when absent.
func (r *FOIRequestRepository) GetByID(ctx context.Context, id string) (*models.FOIRequest, error) {
	query := `SELECT ` + foiRequestColumns + ` FROM foi_requests WHERE id = $1`
	var record models.FOIRequest
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every request in insertion order.
func (r *FOIRequestRepository) List(ctx context.Context) ([]models.FOIRequest, error) {
	query := `SELECT ` + foiRequestColumns + ` FROM foi_requests ORDER BY seq ASC`
	records := make([]models.FOIRequest, 0)
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list foi requests: %w", err)
	}
	return records, nil
}

// ApplyTransition updates the row only while it still satisfies the transition guard.
// It returns sql.ErrNoRows when the row is missing or the guard no longer holds.
func (r *FOIRequestRepository) ApplyTransition(ctx context.Context, transition models.FOITransition) (*models.FOIRequest, error) {
	args := make([]interface{}, 0, 8)
	next := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	setParts := []string{
		"status = " + next(transition.ToStatus),
		"updated_at = " + next(transition.UpdatedAt),
	}
	if transition.DueDate != nil {
		setParts = append(setParts, "due_date = "+next(*transition.DueDate))
	}
	if transition.ExtensionGranted != nil {
		setParts = append(setParts, "extension_granted = "+next(*transition.ExtensionGranted))
	}

	conditions := []string{"id = " + next(transition.ID)}
	placeholders := make([]string, len(transition.FromStatus))
	for i, status := range transition.FromStatus {
		placeholders[i] = next(status)
	}
	conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	if transition.RequireExtension != nil {
		conditions = append(conditions, "extension_granted = "+next(*transition.RequireExtension))
	}

	query := fmt.Sprintf("UPDATE foi_requests SET %s WHERE %s RETURNING %s",
		strings.Join(setParts, ", "),
		strings.Join(conditions, " AND "),
		foiRequestColumns,
	)
	var record models.FOIRequest
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		return nil, err
	}
	return &record, nil
}
