package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fqms/fees-queue-api/internal/models"
	"github.com/fqms/fees-queue-api/pkg/jobs"
)

// QueueEvent describes a ledger mutation students would be notified about.
// The original UI polls instead of receiving pushes, so delivery here means
// recording the event in the audit trail off the request path.
type QueueEvent struct {
	Event       string  `json:"event"`
	PaymentID   string  `json:"payment_id"`
	CounterID   string  `json:"counter_id"`
	StudentID   string  `json:"student_id"`
	TokenNumber string  `json:"token_number"`
	Reason      *string `json:"reason,omitempty"`
}

type auditSink interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// QueueNotifier dispatches queue events to background workers.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier builds the notifier and its backing job queue.
func NewQueueNotifier(sink auditSink, logger *zap.Logger, cfg jobs.QueueConfig) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(QueueEvent)
		if !ok {
			logger.Warn("unexpected notification payload", zap.String("job_id", job.ID))
			return nil
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return sink.CreateAuditLog(ctx, &models.AuditLog{
			Action:     models.AuditActionQueueNotify,
			Resource:   "queue",
			ResourceID: &event.PaymentID,
			NewValues:  payload,
		})
	}
	cfg.Logger = logger
	return &QueueNotifier{
		queue:  jobs.NewQueue("queue-notifications", handler, cfg),
		logger: logger,
	}
}

// Start launches the notification workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *QueueNotifier) Stop() {
	if n == nil {
		return
	}
	n.queue.Stop()
}

// Notify enqueues an event; failures are logged, never surfaced to callers.
func (n *QueueNotifier) Notify(event QueueEvent) {
	if n == nil {
		return
	}
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    event.Event,
		Payload: event,
	})
	if err != nil {
		n.logger.Warn("failed to enqueue queue notification", zap.String("event", event.Event), zap.Error(err))
	}
}
