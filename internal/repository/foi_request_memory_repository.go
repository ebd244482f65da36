package repository

import (
	"context"
	"database/sql"
	"sync"

	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

// MemoryFOIRequestRepository keeps requests in process memory for session mode.
// Records are copied in and out so callers never alias stored state.
type MemoryFOIRequestRepository struct {
	mu      sync.RWMutex
	records []models.FOIRequest
	index   map[string]int
}

// NewMemoryFOIRequestRepository constructs an empty in-memory store.
func NewMemoryFOIRequestRepository() *MemoryFOIRequestRepository {
	return &MemoryFOIRequestRepository{index: make(map[string]int)}
}

// Create assigns the next identifier and appends the record.
func (r *MemoryFOIRequestRepository) Create(_ context.Context, record *models.FOIRequest, newID models.RequestIDFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newID(len(r.records) + 1)
	if _, exists := r.index[id]; exists {
		return appErrors.Clonef(appErrors.ErrConflict, "foi request %s already exists", id)
	}
	record.ID = id
	r.append(*record)
	return nil
}

// Insert appends a record whose identifier is already set.
func (r *MemoryFOIRequestRepository) Insert(_ context.Context, record *models.FOIRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[record.ID]; exists {
		return appErrors.Clonef(appErrors.ErrConflict, "foi request %s already exists", record.ID)
	}
	r.append(*record)
	return nil
}

func (r *MemoryFOIRequestRepository) append(record models.FOIRequest) {
	r.index[record.ID] = len(r.records)
	r.records = append(r.records, record)
}

// Count returns the number of stored requests.
func (r *MemoryFOIRequestRepository) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// GetByID returns a copy of the stored request or sql.ErrNoRows.
func (r *MemoryFOIRequestRepository) GetByID(_ context.Context, id string) (*models.FOIRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	record := r.records[pos]
	return &record, nil
}

// List returns a snapshot of all requests in insertion order.
func (r *MemoryFOIRequestRepository) List(context.Context) ([]models.FOIRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.FOIRequest, len(r.records))
	copy(out, r.records)
	return out, nil
}

// ApplyTransition checks the guard and applies the change under the write lock.
func (r *MemoryFOIRequestRepository) ApplyTransition(_ context.Context, transition models.FOITransition) (*models.FOIRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[transition.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	record := &r.records[pos]
	if !transition.Permits(record) {
		return nil, sql.ErrNoRows
	}
	transition.ApplyTo(record)
	updated := *record
	return &updated, nil
}
