package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/foi-request-api/internal/models"
)

const staffColumns = `id, email, password_hash, full_name, role, active, last_login, created_at, updated_at`

// StaffRepository provides database access for privacy office accounts.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByEmail returns a staff member by email address.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE email = $1 LIMIT 1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by email: %w", err)
	}
	return &staff, nil
}

// FindByID returns a staff member by identifier.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1 LIMIT 1`
	var staff models.Staff
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by id: %w", err)
	}
	return &staff, nil
}

// UpdateLastLogin updates the last_login timestamp.
func (r *StaffRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE staff SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Upsert creates the account or refreshes its password, name and role when the email exists.
func (r *StaffRepository) Upsert(ctx context.Context, staff *models.Staff) error {
	prepareStaff(staff)
	const query = `INSERT INTO staff (id, email, password_hash, full_name, role, active, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)
	ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, full_name = EXCLUDED.full_name,
	role = EXCLUDED.role, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("upsert staff: %w", err)
	}
	return nil
}

func prepareStaff(staff *models.Staff) {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	staff.Email = strings.ToLower(strings.TrimSpace(staff.Email))
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now
}

// MemoryStaffRepository keeps staff accounts in memory for session mode.
type MemoryStaffRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.Staff
	byEmail map[string]string
}

// NewMemoryStaffRepository constructs an empty account store.
func NewMemoryStaffRepository() *MemoryStaffRepository {
	return &MemoryStaffRepository{byID: make(map[string]models.Staff), byEmail: make(map[string]string)}
}

// FindByEmail returns the account for email or sql.ErrNoRows.
func (r *MemoryStaffRepository) FindByEmail(_ context.Context, email string) (*models.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sql.ErrNoRows
	}
	staff := r.byID[id]
	return &staff, nil
}

// FindByID returns the account for id or sql.ErrNoRows.
func (r *MemoryStaffRepository) FindByID(_ context.Context, id string) (*models.Staff, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	staff, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &staff, nil
}

// UpdateLastLogin records a successful sign in.
func (r *MemoryStaffRepository) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	staff.LastLogin = &ts
	staff.UpdatedAt = ts
	r.byID[id] = staff
	return nil
}

// Upsert stores the account keyed by email.
func (r *MemoryStaffRepository) Upsert(_ context.Context, staff *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prepareStaff(staff)
	if existingID, ok := r.byEmail[staff.Email]; ok {
		staff.ID = existingID
		staff.CreatedAt = r.byID[existingID].CreatedAt
	}
	r.byID[staff.ID] = *staff
	r.byEmail[staff.Email] = staff.ID
	return nil
}
