package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/dto"
	"github.com/noah-isme/foi-request-api/internal/models"
	appErrors "github.com/noah-isme/foi-request-api/pkg/errors"
)

// reportCachePattern matches every cached report and dashboard payload.
const reportCachePattern = "foi:report:*"

// Lifecycle actions reported to metrics and audit.
const (
	ActionStart    = "start"
	ActionExtend   = "extend"
	ActionComplete = "complete"
)

// FOIRequestStore is the request store contract shared by the memory and PostgreSQL backends.
// Lookups and guarded updates report sql.ErrNoRows when nothing matched.
type FOIRequestStore interface {
	Create(ctx context.Context, record *models.FOIRequest, newID models.RequestIDFunc) error
	Insert(ctx context.Context, record *models.FOIRequest) error
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*models.FOIRequest, error)
	List(ctx context.Context) ([]models.FOIRequest, error)
	ApplyTransition(ctx context.Context, transition models.FOITransition) (*models.FOIRequest, error)
}

// FOIRequestServiceParams groups dependencies for FOIRequestService.
type FOIRequestServiceParams struct {
	Store     FOIRequestStore
	Audit     auditLogger
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Clock     func() time.Time
}

// FOIRequestService registers requests and drives them through their lifecycle.
type FOIRequestService struct {
	store     FOIRequestStore
	audit     auditLogger
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFOIRequestService constructs the service.
func NewFOIRequestService(params FOIRequestServiceParams) *FOIRequestService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	clock := params.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &FOIRequestService{
		store:     params.Store,
		audit:     params.Audit,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       clock,
	}
}

// Create validates the payload and stores a new Pending Review request.
func (s *FOIRequestService) Create(ctx context.Context, req dto.CreateFOIRequest, actorID string) (*models.FOIRequest, error) {
	req.RequesterName = strings.TrimSpace(req.RequesterName)
	req.Description = strings.TrimSpace(req.Description)
	req.AssignedTo = strings.TrimSpace(req.AssignedTo)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	received := req.DateReceived
	if received.IsZero() {
		received = models.DateOf(now)
	}
	assignee := req.AssignedTo
	if assignee == "" {
		assignee = models.DefaultAssignee
	}

	record := &models.FOIRequest{
		RequesterName:          req.RequesterName,
		RequestType:            req.RequestType,
		DateReceived:           received,
		DueDate:                ComputeDueDate(received, req.LegislationType),
		Status:                 models.RequestStatusPendingReview,
		AssignedTo:             assignee,
		LegislationType:        req.LegislationType,
		Description:            req.Description,
		ThirdPartyNotification: req.ThirdPartyNotification,
		FeeEstimate:            ComputeFee(req.RequestType, req.LegislationType),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	year := now.Year()
	if err := s.store.Create(ctx, record, func(sequence int) string {
		return FormatRequestID(year, sequence)
	}); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create foi request")
	}

	s.metrics.ObserveRequestCreated(string(record.LegislationType))
	s.emitAudit(ctx, models.AuditActionRequestCreate, actorID, record.ID, nil, record)
	s.invalidateReports(ctx)
	return record, nil
}

// FormatRequestID renders FOI-<year>-<sequence padded to three digits>.
func FormatRequestID(year, sequence int) string {
	return fmt.Sprintf("FOI-%d-%03d", year, sequence)
}

// Get returns a request by identifier.
func (s *FOIRequestService) Get(ctx context.Context, id string) (*models.FOIRequest, error) {
	record, err := s.store.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load foi request")
	}
	return record, nil
}

// All returns every request in insertion order.
func (s *FOIRequestService) All(ctx context.Context) ([]models.FOIRequest, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list foi requests")
	}
	return records, nil
}

// List returns the requests matching the query together with the unfiltered total.
func (s *FOIRequestService) List(ctx context.Context, query dto.FOIRequestQuery) (*dto.FOIRequestList, error) {
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.FOIRequestList{
		Items: FilterRequests(records, query.Filter()),
		Total: len(records),
	}, nil
}

// StartProcessing moves a Pending Review request to In Progress.
func (s *FOIRequestService) StartProcessing(ctx context.Context, id, actorID string) (*models.FOIRequest, error) {
	return s.transition(ctx, ActionStart, models.AuditActionRequestStart, id, actorID, func(current *models.FOIRequest) models.FOITransition {
		return models.FOITransition{
			ID:         current.ID,
			FromStatus: []models.RequestStatus{models.RequestStatusPendingReview},
			ToStatus:   models.RequestStatusInProgress,
		}
	})
}

// GrantExtension pushes the due date of an In Progress request back once.
func (s *FOIRequestService) GrantExtension(ctx context.Context, id, actorID string) (*models.FOIRequest, error) {
	return s.transition(ctx, ActionExtend, models.AuditActionRequestExtend, id, actorID, func(current *models.FOIRequest) models.FOITransition {
		notExtended, granted := false, true
		due := current.DueDate.AddDays(ExtensionDays)
		return models.FOITransition{
			ID:               current.ID,
			FromStatus:       []models.RequestStatus{models.RequestStatusInProgress},
			RequireExtension: &notExtended,
			ToStatus:         models.RequestStatusExtended,
			DueDate:          &due,
			ExtensionGranted: &granted,
		}
	})
}

// MarkComplete closes an In Progress or Extended request.
func (s *FOIRequestService) MarkComplete(ctx context.Context, id, actorID string) (*models.FOIRequest, error) {
	return s.transition(ctx, ActionComplete, models.AuditActionRequestComplete, id, actorID, func(current *models.FOIRequest) models.FOITransition {
		return models.FOITransition{
			ID:         current.ID,
			FromStatus: []models.RequestStatus{models.RequestStatusInProgress, models.RequestStatusExtended},
			ToStatus:   models.RequestStatusCompleted,
		}
	})
}

func (s *FOIRequestService) transition(
	ctx context.Context,
	action, auditAction, id, actorID string,
	plan func(current *models.FOIRequest) models.FOITransition,
) (*models.FOIRequest, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		s.metrics.ObserveTransition(action, outcomeFor(err))
		return nil, err
	}

	transition := plan(current)
	transition.UpdatedAt = s.now()
	if !transition.Permits(current) {
		s.metrics.ObserveTransition(action, OutcomeRejected)
		return nil, invalidTransition(action, current)
	}

	updated, err := s.store.ApplyTransition(ctx, transition)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.ObserveTransition(action, OutcomeRejected)
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				fmt.Sprintf("request %s changed while trying to %s it", current.ID, action))
		}
		s.metrics.ObserveTransition(action, OutcomeError)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update foi request")
	}

	s.metrics.ObserveTransition(action, OutcomeApplied)
	s.emitAudit(ctx, auditAction, actorID, updated.ID, current, updated)
	s.invalidateReports(ctx)
	return updated, nil
}

// SeedSample loads the demonstration records when the store is empty and reports how many were inserted.
func (s *FOIRequestService) SeedSample(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count foi requests")
	}
	if count > 0 {
		return 0, nil
	}
	sample := SampleFOIRequests()
	for i := range sample {
		if err := s.store.Insert(ctx, &sample[i]); err != nil {
			return i, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed foi requests")
		}
	}
	s.invalidateReports(ctx)
	return len(sample), nil
}

func (s *FOIRequestService) emitAudit(ctx context.Context, action, actorID, resourceID string, before, after *models.FOIRequest) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   models.AuditResourceFOIRequest,
		ResourceID: &resourceID,
		OldValues:  marshalAuditValue(before),
		NewValues:  marshalAuditValue(after),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record foi audit log",
			zap.String("action", action),
			zap.String("request_id", resourceID),
			zap.Error(err))
	}
}

func (s *FOIRequestService) invalidateReports(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, reportCachePattern); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

func marshalAuditValue(record *models.FOIRequest) []byte {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil
	}
	return payload
}

func notFound(id string) error {
	return appErrors.Clonef(appErrors.ErrNotFound, "foi request %s not found", id)
}

func invalidTransition(action string, current *models.FOIRequest) error {
	if action == ActionExtend && current.ExtensionGranted {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("request %s has already been granted an extension", current.ID))
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("cannot %s request %s while it is %s", action, current.ID, current.Status))
}

func outcomeFor(err error) string {
	if errors.Is(err, appErrors.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeError
}
