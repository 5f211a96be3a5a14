package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fqms/fees-queue-api/internal/models"
	appErrors "github.com/fqms/fees-queue-api/pkg/errors"
)

type queueLedgerRepository interface {
	Insert(ctx context.Context, entry *models.QueueEntry) error
	HasActiveEntry(ctx context.Context, studentID, counterID string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.QueueEntryDetail, error)
	ActiveByCounter(ctx context.Context, counterID string) ([]models.QueueEntryDetail, error)
	CurrentOfCounter(ctx context.Context, counterID string) (*models.QueueEntryDetail, error)
	ByStudent(ctx context.Context, studentID string) ([]models.QueueEntryDetail, error)
	StatsForCounter(ctx context.Context, counterID string, dayStart time.Time) (*models.QueueStats, error)
	StatsForStudent(ctx context.Context, studentID string) (*models.StudentStats, error)
	RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.QueueEntry, error)
}

type feeTypeChecker interface {
	FeeTypeExists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*models.CounterDetail, error)
}

type studentProfileFinder interface {
	StudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// EnqueueRequest is the student payment-request payload.
type EnqueueRequest struct {
	CounterID   string  `json:"counter_id" validate:"required"`
	FeeTypeID   string  `json:"fee_type_id" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description"`
}

// EnqueueResult is returned to the student after admission.
type EnqueueResult struct {
	PaymentID     string `json:"payment_id"`
	TokenNumber   string `json:"token_number"`
	QueuePosition int64  `json:"queue_position"`
	EffectiveRank int64  `json:"effective_rank"`
}

// QueueServiceConfig tunes token generation and caching.
type QueueServiceConfig struct {
	TokenPrefix   string
	StatsCacheTTL time.Duration
}

// QueueService owns queue admission and the read projections.
type QueueService struct {
	queue     queueLedgerRepository
	counters  feeTypeChecker
	profiles  studentProfileFinder
	cache     *CacheService
	metrics   *MetricsService
	notifier  *QueueNotifier
	validator *validator.Validate
	logger    *zap.Logger
	cfg       QueueServiceConfig
	now       func() time.Time
	tokenSeq  uint64
	tokenBase uint64
}

// NewQueueService constructs the queue service.
func NewQueueService(queue queueLedgerRepository, counters feeTypeChecker, profiles studentProfileFinder,
	cache *CacheService, metrics *MetricsService, notifier *QueueNotifier,
	validate *validator.Validate, logger *zap.Logger, cfg QueueServiceConfig) *QueueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenPrefix == "" {
		cfg.TokenPrefix = "TKN"
	}
	return &QueueService{
		queue:     queue,
		counters:  counters,
		profiles:  profiles,
		cache:     cache,
		metrics:   metrics,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		tokenBase: uint64(rand.Intn(1000)),
	}
}

// Enqueue admits a payment request for the student owning the account.
func (s *QueueService) Enqueue(ctx context.Context, userID string, req EnqueueRequest) (*EnqueueResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	profile, err := s.profiles.StudentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	counter, err := s.counters.FindByID(ctx, req.CounterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counter")
	}
	if !counter.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "counter is not accepting payments")
	}

	exists, err := s.counters.FeeTypeExists(ctx, req.FeeTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate fee type")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "fee type not found")
	}

	active, err := s.queue.HasActiveEntry(ctx, profile.ID, req.CounterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active entries")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active payment request already exists at this counter")
	}

	entry := &models.QueueEntry{
		StudentID:   profile.ID,
		TokenNumber: s.newTokenNumber(),
		CounterID:   req.CounterID,
		FeeTypeID:   req.FeeTypeID,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if err := s.queue.Insert(ctx, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Counter row vanished or was deactivated between the check and
			// the insert; the CTE makes that show up as zero rows.
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment request")
	}

	s.metrics.ObserveQueueEvent(QueueEventEnqueued, req.CounterID)
	s.invalidateCounter(ctx, req.CounterID)
	s.invalidateStudent(ctx, profile.ID)
	s.notifier.Notify(QueueEvent{
		Event:       QueueEventEnqueued,
		PaymentID:   entry.ID,
		CounterID:   entry.CounterID,
		StudentID:   entry.StudentID,
		TokenNumber: entry.TokenNumber,
	})

	rank, err := s.effectiveRank(ctx, entry.CounterID, entry.QueuePosition)
	if err != nil {
		s.logger.Warn("failed to compute effective rank after enqueue", zap.Error(err))
		rank = entry.QueuePosition
	}

	return &EnqueueResult{
		PaymentID:     entry.ID,
		TokenNumber:   entry.TokenNumber,
		QueuePosition: entry.QueuePosition,
		EffectiveRank: rank,
	}, nil
}

// QueueForCounter returns the rank-annotated active queue at a counter.
func (s *QueueService) QueueForCounter(ctx context.Context, counterID string) ([]models.QueueEntryDetail, error) {
	if _, err := s.counters.FindByID(ctx, counterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counter")
	}
	entries, err := s.queue.ActiveByCounter(ctx, counterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list counter queue")
	}
	return entries, nil
}

// QueueForStudent returns the student's payment history, newest first.
func (s *QueueService) QueueForStudent(ctx context.Context, userID string) ([]models.QueueEntryDetail, error) {
	profile, err := s.profiles.StudentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	entries, err := s.queue.ByStudent(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student queue")
	}
	return entries, nil
}

// CurrentOfCounter returns the now-serving entry, or nil when idle.
func (s *QueueService) CurrentOfCounter(ctx context.Context, counterID string) (*models.QueueEntryDetail, error) {
	entry, err := s.queue.CurrentOfCounter(ctx, counterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current entry")
	}
	return entry, nil
}

// StatsForCounter returns the counter aggregates, served from cache when warm.
// The bool result reports a cache hit.
func (s *QueueService) StatsForCounter(ctx context.Context, counterID string) (*models.QueueStats, bool, error) {
	key := statsCacheKey(counterID)
	var cached models.QueueStats
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	if _, err := s.counters.FindByID(ctx, counterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "counter not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load counter")
	}

	stats, err := s.queue.StatsForCounter(ctx, counterID, startOfToday(s.now()))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute counter stats")
	}
	stats.GeneratedAt = s.now().UTC()

	if err := s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL); err != nil {
		s.logger.Warn("failed to cache counter stats", zap.String("counter_id", counterID), zap.Error(err))
	}
	return stats, false, nil
}

// StudentDashboard composes the student home projection.
func (s *QueueService) StudentDashboard(ctx context.Context, userID string) (*models.StudentDashboard, bool, error) {
	profile, err := s.profiles.StudentByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	key := dashboardCacheKey(profile.ID)
	var cached models.StudentDashboard
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stats, err := s.queue.StatsForStudent(ctx, profile.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute student stats")
	}

	// Best (lowest) effective rank among the student's active entries.
	entries, err := s.queue.ByStudent(ctx, profile.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student queue")
	}
	for _, e := range entries {
		if e.EffectiveRank == nil {
			continue
		}
		if stats.QueuePosition == 0 || int(*e.EffectiveRank) < stats.QueuePosition {
			stats.QueuePosition = int(*e.EffectiveRank)
		}
	}

	recent, err := s.queue.RecentByStudent(ctx, profile.ID, 5)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent payments")
	}

	dashboard := &models.StudentDashboard{
		Student:        *profile,
		Stats:          *stats,
		RecentPayments: recent,
		GeneratedAt:    s.now().UTC(),
	}

	if err := s.cache.Set(ctx, key, dashboard, 0); err != nil {
		s.logger.Warn("failed to cache student dashboard", zap.String("student_id", profile.ID), zap.Error(err))
	}
	return dashboard, false, nil
}

func (s *QueueService) effectiveRank(ctx context.Context, counterID string, position int64) (int64, error) {
	entries, err := s.queue.ActiveByCounter(ctx, counterID)
	if err != nil {
		return 0, err
	}
	var rank int64 = 1
	for _, e := range entries {
		if e.QueuePosition < position {
			rank++
		}
	}
	return rank, nil
}

// newTokenNumber keeps the legacy TKN + 9 digit shape. The 3-digit suffix is
// a random base fixed at construction plus a monotonic counter, so up to 1000
// tokens minted within the same millisecond stay distinct in-process.
func (s *QueueService) newTokenNumber() string {
	millis := s.now().UnixMilli()
	seq := atomic.AddUint64(&s.tokenSeq, 1)
	suffix := (s.tokenBase + seq) % 1000
	return fmt.Sprintf("%s%06d%03d", s.cfg.TokenPrefix, millis%1000000, suffix)
}

func (s *QueueService) invalidateCounter(ctx context.Context, counterID string) {
	if err := s.cache.Invalidate(ctx, statsCacheKey(counterID)); err != nil {
		s.logger.Warn("failed to invalidate counter stats cache", zap.String("counter_id", counterID), zap.Error(err))
	}
}

func (s *QueueService) invalidateStudent(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey(studentID)); err != nil {
		s.logger.Warn("failed to invalidate student dashboard cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func statsCacheKey(counterID string) string {
	return "queue:stats:" + counterID
}

func dashboardCacheKey(studentID string) string {
	return "student:dashboard:" + studentID
}

// startOfToday returns local midnight for the given instant. The stats
// "today" window deliberately uses the server's local timezone.
func startOfToday(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
