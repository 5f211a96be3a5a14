package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fqms/fees-queue-api/internal/models"
	"github.com/fqms/fees-queue-api/internal/repository"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

type counterRepository interface {
	List(ctx context.Context) ([]models.CounterDetail, error)
	FindByID(ctx context.Context, id string) (*models.CounterDetail, error)
	Create(ctx context.Context, counter *models.Counter) error
	SetActive(ctx context.Context, id string, active bool) error
	AssignAccountant(ctx context.Context, counterID, accountantID string) error
	ListFeeTypes(ctx context.Context) ([]models.FeeType, error)
}

type counterIdentityRepository interface {
	AccountantByUserID(ctx context.Context, userID string) (*models.AccountantDetail, error)
}

// CreateCounterRequest describes a new service counter.
type CreateCounterRequest struct {
	CounterNumber int    `json:"counter_number" validate:"required,gt=0"`
	CounterName   string `json:"counter_name" validate:"required,min=2,max=100"`
}

// SetCounterActiveRequest toggles a counter's availability.
type SetCounterActiveRequest struct {
	Active bool `json:"active"`
}

// AssignAccountantRequest seats an accountant at a counter.
type AssignAccountantRequest struct {
	AccountantID string `json:"accountant_id" validate:"required,uuid"`
}

// CounterService exposes counter and fee-type administration.
type CounterService struct {
	counters  counterRepository
	users     counterIdentityRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCounterService constructs the counter service.
func NewCounterService(counters counterRepository, users counterIdentityRepository,
	validate *validator.Validate, logger *zap.Logger) *CounterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterService{
		counters:  counters,
		users:     users,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns every counter with its assigned accountant.
func (s *CounterService) List(ctx context.Context) ([]models.CounterDetail, error) {
	counters, err := s.counters.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list counters")
	}
	return counters, nil
}

// Get returns one counter by id.
func (s *CounterService) Get(ctx context.Context, id string) (*models.CounterDetail, error) {
	counter, err := s.counters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counter")
	}
	return counter, nil
}

// Create registers a new counter. Its position sequence starts empty.
func (s *CounterService) Create(ctx context.Context, req CreateCounterRequest) (*models.Counter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counter payload")
	}
	now := s.now().UTC()
	counter := &models.Counter{
		ID:            uuid.NewString(),
		CounterNumber: req.CounterNumber,
		CounterName:   req.CounterName,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.counters.Create(ctx, counter); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create counter")
	}
	return counter, nil
}

// SetActive opens or closes a counter. Entries already queued are untouched;
// a closed counter only stops accepting new ones.
func (s *CounterService) SetActive(ctx context.Context, id string, req SetCounterActiveRequest) error {
	if err := s.counters.SetActive(ctx, id, req.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update counter")
	}
	return nil
}

// AssignAccountant seats an accountant at the counter.
func (s *CounterService) AssignAccountant(ctx context.Context, counterID string, req AssignAccountantRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.counters.AssignAccountant(ctx, counterID, req.AccountantID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		case errors.Is(err, repository.ErrAccountantNotFound):
			return appErrors.Clone(appErrors.ErrNotFound, "accountant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign accountant")
	}
	return nil
}

// ListFeeTypes returns the active fee catalogue.
func (s *CounterService) ListFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	feeTypes, err := s.counters.ListFeeTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee types")
	}
	return feeTypes, nil
}

// AccountantProfile returns the calling accountant's profile with counter
// assignment.
func (s *CounterService) AccountantProfile(ctx context.Context, userID string) (*models.AccountantDetail, error) {
	accountant, err := s.users.AccountantByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "accountant profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load accountant")
	}
	return accountant, nil
}
