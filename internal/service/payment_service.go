package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fqms/fees-queue-api/internal/models"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

type paymentLedgerRepository interface {
	FindByID(ctx context.Context, id string) (*models.QueueEntryDetail, error)
	Complete(ctx context.Context, entryID, accountantID string, at time.Time) error
	Reposition(ctx context.Context, entryID string, at time.Time) (int64, error)
	Remove(ctx context.Context, entryID, reason string, at time.Time) error
	ActiveByCounter(ctx context.Context, counterID string) ([]models.QueueEntryDetail, error)
}

type paymentIdentityRepository interface {
	AccountantByUserID(ctx context.Context, userID string) (*models.AccountantDetail, error)
	StudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type receiptRenderer interface {
	Render(r models.Receipt) ([]byte, error)
}

// ProcessRequest identifies the entry an accountant is completing.
type ProcessRequest struct {
	QueueID string `json:"queue_id" validate:"required"`
}

// SkipRequest moves an entry to the back of its counter's queue.
type SkipRequest struct {
	QueueID   string `json:"queue_id" validate:"required"`
	CounterID string `json:"counter_id" validate:"required"`
}

// RemoveRequest drops an entry from the queue with a reason tag.
type RemoveRequest struct {
	QueueID   string `json:"queue_id" validate:"required"`
	CounterID string `json:"counter_id" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// SkipResult reports the entry's new standing.
type SkipResult struct {
	QueueID       string `json:"queue_id"`
	QueuePosition int64  `json:"queue_position"`
	EffectiveRank int64  `json:"effective_rank"`
}

// PaymentServiceConfig carries receipt identity settings.
type PaymentServiceConfig struct {
	ReceiptPrefix string
}

// PaymentService owns the terminal transitions of queue entries and the
// receipt projection assembled on completion. Every mutation is a single
// conditional statement; a transition losing a race observes InvalidState
// instead of corrupting an already-terminal entry.
type PaymentService struct {
	queue       paymentLedgerRepository
	users       paymentIdentityRepository
	cache       *CacheService
	metrics     *MetricsService
	notifier    *QueueNotifier
	receipts    receiptRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         PaymentServiceConfig
	now         func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(queue paymentLedgerRepository, users paymentIdentityRepository,
	cache *CacheService, metrics *MetricsService, notifier *QueueNotifier, receipts receiptRenderer,
	validate *validator.Validate, logger *zap.Logger, cfg PaymentServiceConfig) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "REC"
	}
	return &PaymentService{
		queue:       queue,
		users:       users,
		cache:       cache,
		metrics:     metrics,
		notifier:    notifier,
		receipts:    receipts,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Process completes a queue entry on behalf of the calling accountant and
// returns the receipt projection.
func (s *PaymentService) Process(ctx context.Context, userID string, req ProcessRequest) (*models.Receipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid process payload")
	}

	accountant, err := s.users.AccountantByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "accountant profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load accountant")
	}

	at := s.now().UTC()
	if err := s.queue.Complete(ctx, req.QueueID, accountant.ID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionFailure(ctx, req.QueueID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}

	entry, err := s.queue.FindByID(ctx, req.QueueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed payment")
	}

	s.metrics.ObserveQueueEvent(QueueEventProcessed, entry.CounterID)
	s.invalidate(ctx, entry.CounterID, entry.StudentID)
	s.notifier.Notify(QueueEvent{
		Event:       QueueEventProcessed,
		PaymentID:   entry.ID,
		CounterID:   entry.CounterID,
		StudentID:   entry.StudentID,
		TokenNumber: entry.TokenNumber,
	})

	return s.buildReceipt(entry), nil
}

// Skip moves an active entry to the back of its counter's queue.
func (s *PaymentService) Skip(ctx context.Context, req SkipRequest) (*SkipResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid skip payload")
	}

	position, err := s.queue.Reposition(ctx, req.QueueID, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.transitionFailure(ctx, req.QueueID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to skip entry")
	}

	entry, err := s.queue.FindByID(ctx, req.QueueID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load skipped entry")
	}

	s.metrics.ObserveQueueEvent(QueueEventSkipped, entry.CounterID)
	s.invalidate(ctx, entry.CounterID, entry.StudentID)
	s.notifier.Notify(QueueEvent{
		Event:       QueueEventSkipped,
		PaymentID:   entry.ID,
		CounterID:   entry.CounterID,
		StudentID:   entry.StudentID,
		TokenNumber: entry.TokenNumber,
	})

	// A freshly drawn position is always last among active entries.
	active, err := s.queue.ActiveByCounter(ctx, entry.CounterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list counter queue")
	}
	return &SkipResult{
		QueueID:       entry.ID,
		QueuePosition: position,
		EffectiveRank: int64(len(active)),
	}, nil
}

// Remove drops an active entry, recording the reason.
func (s *PaymentService) Remove(ctx context.Context, req RemoveRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}

	if err := s.queue.Remove(ctx, req.QueueID, req.Reason, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.transitionFailure(ctx, req.QueueID)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove entry")
	}

	entry, err := s.queue.FindByID(ctx, req.QueueID)
	if err != nil {
		s.logger.Warn("failed to load removed entry", zap.String("queue_id", req.QueueID), zap.Error(err))
		return nil
	}

	s.metrics.ObserveQueueEvent(QueueEventRemoved, entry.CounterID)
	s.invalidate(ctx, entry.CounterID, entry.StudentID)
	reason := req.Reason
	s.notifier.Notify(QueueEvent{
		Event:       QueueEventRemoved,
		PaymentID:   entry.ID,
		CounterID:   entry.CounterID,
		StudentID:   entry.StudentID,
		TokenNumber: entry.TokenNumber,
		Reason:      &reason,
	})
	return nil
}

// Receipt rebuilds the receipt projection for a completed entry. Students may
// only fetch their own receipts; ownStudentID is empty for accountants.
func (s *PaymentService) Receipt(ctx context.Context, entryID, ownUserID string, restrictToOwner bool) (*models.Receipt, error) {
	entry, err := s.queue.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if entry.Status != models.StatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "payment is not completed")
	}
	if restrictToOwner {
		owner, err := s.ownsEntry(ctx, entry, ownUserID)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "receipt belongs to another student")
		}
	}
	return s.buildReceipt(entry), nil
}

// ReceiptPDF renders the receipt as a printable document.
func (s *PaymentService) ReceiptPDF(ctx context.Context, entryID, ownUserID string, restrictToOwner bool) ([]byte, string, error) {
	receipt, err := s.Receipt(ctx, entryID, ownUserID, restrictToOwner)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.receipts.Render(*receipt)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, receipt.ReceiptNumber, nil
}

func (s *PaymentService) ownsEntry(ctx context.Context, entry *models.QueueEntryDetail, userID string) (bool, error) {
	profile, err := s.users.StudentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return profile.ID == entry.StudentID, nil
}

func (s *PaymentService) invalidate(ctx context.Context, counterID, studentID string) {
	if err := s.cache.Invalidate(ctx, statsCacheKey(counterID)); err != nil {
		s.logger.Warn("failed to invalidate counter stats cache", zap.String("counter_id", counterID), zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(studentID)); err != nil {
		s.logger.Warn("failed to invalidate student dashboard cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

// transitionFailure distinguishes a missing entry from one already terminal.
func (s *PaymentService) transitionFailure(ctx context.Context, entryID string) error {
	entry, err := s.queue.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "queue entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queue entry")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("queue entry is already %s", entry.Status))
}

func (s *PaymentService) buildReceipt(entry *models.QueueEntryDetail) *models.Receipt {
	paidAt := s.now().UTC()
	if entry.ProcessedAt != nil {
		paidAt = *entry.ProcessedAt
	}
	accountantName := ""
	if entry.ProcessedBy != nil {
		accountantName = *entry.ProcessedBy
	}
	return &models.Receipt{
		ReceiptNumber:  s.newReceiptNumber(),
		PaymentID:      entry.ID,
		TokenNumber:    entry.TokenNumber,
		StudentName:    entry.StudentName,
		RollNumber:     entry.RollNumber,
		CounterName:    entry.CounterName,
		CounterNumber:  entry.CounterNumber,
		AccountantName: accountantName,
		FeeType:        entry.FeeType,
		Amount:         entry.Amount,
		Description:    entry.Description,
		PaidAt:         paidAt,
	}
}

// newReceiptNumber keeps the legacy REC + last-8-of-millis shape.
func (s *PaymentService) newReceiptNumber() string {
	return fmt.Sprintf("%s%08d", s.cfg.ReceiptPrefix, s.now().UnixMilli()%100000000)
}
