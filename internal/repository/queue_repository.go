package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fqms/fees-queue-api/internal/models"
)

// QueueRepository owns the queue ledger: admission of payment requests and
// their single-statement state transitions. Queue positions are drawn from
// the per-counter sequence (counters.next_seq) inside the same statement as
// the write that uses them, so concurrent callers always observe distinct,
// strictly increasing positions.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository constructs a QueueRepository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Insert admits a payment request. The position comes from the counter's
// sequence; sql.ErrNoRows means the counter is missing or inactive.
func (r *QueueRepository) Insert(ctx context.Context, entry *models.QueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.Status = models.StatusPending
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `WITH seq AS (
            UPDATE counters SET next_seq = next_seq + 1, updated_at = $8
            WHERE id = $4 AND active = true
            RETURNING next_seq
        )
        INSERT INTO payments (id, student_id, token_number, counter_id, fee_type_id, amount, description, queue_position, status, created_at, updated_at)
        SELECT $1, $2, $3, $4, $5, $6, $7, seq.next_seq, 'pending', $8, $8 FROM seq
        RETURNING queue_position`
	if err := r.db.GetContext(ctx, &entry.QueuePosition, query,
		entry.ID, entry.StudentID, entry.TokenNumber, entry.CounterID,
		entry.FeeTypeID, entry.Amount, entry.Description, now,
	); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// HasActiveEntry reports whether the student already holds an active entry at
// the counter.
func (r *QueueRepository) HasActiveEntry(ctx context.Context, studentID, counterID string) (bool, error) {
	const query = `SELECT 1 FROM payments
        WHERE student_id = $1 AND counter_id = $2 AND status IN ('pending', 'processing') LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, counterID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active entry: %w", err)
	}
	return true, nil
}

// FindByID fetches a single entry with display annotations.
func (r *QueueRepository) FindByID(ctx context.Context, id string) (*models.QueueEntryDetail, error) {
	const query = `SELECT p.id, p.student_id, p.token_number, p.counter_id, p.fee_type_id, p.amount, p.description,
        p.queue_position, p.status, p.assigned_to, p.removal_reason, p.processed_at, p.removed_at, p.created_at, p.updated_at,
        s.full_name AS student_name, s.roll_number, c.counter_name, c.counter_number, ft.type_name AS fee_type,
        a.full_name AS processed_by
        FROM payments p
        JOIN students s ON s.id = p.student_id
        JOIN counters c ON c.id = p.counter_id
        JOIN fee_types ft ON ft.id = p.fee_type_id
        LEFT JOIN accountants a ON a.id = p.assigned_to
        WHERE p.id = $1`
	var detail models.QueueEntryDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find queue entry: %w", err)
	}
	return &detail, nil
}

// ActiveByCounter returns the counter's active entries in queue order, each
// annotated with its effective rank.
func (r *QueueRepository) ActiveByCounter(ctx context.Context, counterID string) ([]models.QueueEntryDetail, error) {
	const query = `SELECT p.id, p.student_id, p.token_number, p.counter_id, p.fee_type_id, p.amount, p.description,
        p.queue_position, p.status, p.assigned_to, p.removal_reason, p.processed_at, p.removed_at, p.created_at, p.updated_at,
        s.full_name AS student_name, s.roll_number, c.counter_name, c.counter_number, ft.type_name AS fee_type,
        ROW_NUMBER() OVER (ORDER BY p.queue_position) AS effective_rank
        FROM payments p
        JOIN students s ON s.id = p.student_id
        JOIN counters c ON c.id = p.counter_id
        JOIN fee_types ft ON ft.id = p.fee_type_id
        WHERE p.counter_id = $1 AND p.status IN ('pending', 'processing')
        ORDER BY p.queue_position`
	var entries []models.QueueEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, counterID); err != nil {
		return nil, fmt.Errorf("list counter queue: %w", err)
	}
	return entries, nil
}

// CurrentOfCounter returns the active entry with the smallest position, or
// sql.ErrNoRows when the counter is idle.
func (r *QueueRepository) CurrentOfCounter(ctx context.Context, counterID string) (*models.QueueEntryDetail, error) {
	const query = `SELECT p.id, p.student_id, p.token_number, p.counter_id, p.fee_type_id, p.amount, p.description,
        p.queue_position, p.status, p.assigned_to, p.removal_reason, p.processed_at, p.removed_at, p.created_at, p.updated_at,
        s.full_name AS student_name, s.roll_number, c.counter_name, c.counter_number, ft.type_name AS fee_type
        FROM payments p
        JOIN students s ON s.id = p.student_id
        JOIN counters c ON c.id = p.counter_id
        JOIN fee_types ft ON ft.id = p.fee_type_id
        WHERE p.counter_id = $1 AND p.status IN ('pending', 'processing')
        ORDER BY p.queue_position LIMIT 1`
	var detail models.QueueEntryDetail
	if err := r.db.GetContext(ctx, &detail, query, counterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("current of counter: %w", err)
	}
	return &detail, nil
}

// ByStudent returns every entry for a student, newest first. Active entries
// carry their effective rank; terminal ones have a NULL rank.
func (r *QueueRepository) ByStudent(ctx context.Context, studentID string) ([]models.QueueEntryDetail, error) {
	const query = `SELECT p.id, p.student_id, p.token_number, p.counter_id, p.fee_type_id, p.amount, p.description,
        p.queue_position, p.status, p.assigned_to, p.removal_reason, p.processed_at, p.removed_at, p.created_at, p.updated_at,
        s.full_name AS student_name, s.roll_number, c.counter_name, c.counter_number, ft.type_name AS fee_type,
        a.full_name AS processed_by,
        CASE WHEN p.status IN ('pending', 'processing') THEN
            (SELECT COUNT(*) + 1 FROM payments q
             WHERE q.counter_id = p.counter_id AND q.status IN ('pending', 'processing') AND q.queue_position < p.queue_position)
        END AS effective_rank
        FROM payments p
        JOIN students s ON s.id = p.student_id
        JOIN counters c ON c.id = p.counter_id
        JOIN fee_types ft ON ft.id = p.fee_type_id
        LEFT JOIN accountants a ON a.id = p.assigned_to
        WHERE p.student_id = $1
        ORDER BY p.created_at DESC`
	var entries []models.QueueEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list student queue: %w", err)
	}
	return entries, nil
}

// Complete performs the terminal transition to completed. It only fires while
// the entry is still active; sql.ErrNoRows means the transition lost.
func (r *QueueRepository) Complete(ctx context.Context, entryID, accountantID string, at time.Time) error {
	const query = `UPDATE payments SET status = 'completed', assigned_to = $2, processed_at = $3, updated_at = $3
        WHERE id = $1 AND status IN ('pending', 'processing')
        RETURNING id`
	var id string
	if err := r.db.GetContext(ctx, &id, query, entryID, accountantID, at); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("complete queue entry: %w", err)
	}
	return nil
}

// Reposition moves an active entry to the back of its counter's queue by
// drawing a fresh number from the counter sequence. Returns the new position;
// sql.ErrNoRows means the entry is missing or already terminal.
func (r *QueueRepository) Reposition(ctx context.Context, entryID string, at time.Time) (int64, error) {
	const query = `WITH seq AS (
            UPDATE counters SET next_seq = next_seq + 1, updated_at = $2
            WHERE id = (SELECT counter_id FROM payments WHERE id = $1)
            RETURNING next_seq
        )
        UPDATE payments SET queue_position = (SELECT next_seq FROM seq), updated_at = $2
        WHERE id = $1 AND status IN ('pending', 'processing')
        RETURNING queue_position`
	var position int64
	if err := r.db.GetContext(ctx, &position, query, entryID, at); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("reposition queue entry: %w", err)
	}
	return position, nil
}

// Remove performs the terminal transition to removed, recording the reason.
func (r *QueueRepository) Remove(ctx context.Context, entryID, reason string, at time.Time) error {
	const query = `UPDATE payments SET status = 'removed', removal_reason = $2, removed_at = $3, updated_at = $3
        WHERE id = $1 AND status IN ('pending', 'processing')
        RETURNING id`
	var id string
	if err := r.db.GetContext(ctx, &id, query, entryID, reason, at); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("remove queue entry: %w", err)
	}
	return nil
}

// StatsForCounter aggregates the live queue depth and the day's completions.
// dayStart is the local-midnight boundary computed by the caller.
func (r *QueueRepository) StatsForCounter(ctx context.Context, counterID string, dayStart time.Time) (*models.QueueStats, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status IN ('pending', 'processing')) AS queue_count,
        COUNT(*) FILTER (WHERE status = 'completed' AND processed_at >= $2) AS processed_today,
        COALESCE(SUM(amount) FILTER (WHERE status = 'completed' AND processed_at >= $2), 0) AS revenue_today
        FROM payments WHERE counter_id = $1`
	var stats models.QueueStats
	if err := r.db.GetContext(ctx, &stats, query, counterID, dayStart); err != nil {
		return nil, fmt.Errorf("counter stats: %w", err)
	}
	stats.CounterID = counterID
	return &stats, nil
}

// StatsForStudent aggregates a student's payment totals for the dashboard.
func (r *QueueRepository) StatsForStudent(ctx context.Context, studentID string) (*models.StudentStats, error) {
	const query = `SELECT
        COUNT(*) AS total_payments,
        COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0) AS paid_amount,
        COALESCE(SUM(amount) FILTER (WHERE status IN ('pending', 'processing')), 0) AS pending_amount
        FROM payments WHERE student_id = $1`
	var stats models.StudentStats
	if err := r.db.GetContext(ctx, &stats, query, studentID); err != nil {
		return nil, fmt.Errorf("student stats: %w", err)
	}
	return &stats, nil
}

// RecentByStudent returns the student's most recent entries for the dashboard.
func (r *QueueRepository) RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.QueueEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`SELECT id, student_id, token_number, counter_id, fee_type_id, amount, description,
        queue_position, status, assigned_to, removal_reason, processed_at, removed_at, created_at, updated_at
        FROM payments WHERE student_id = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var entries []models.QueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("recent student payments: %w", err)
	}
	return entries, nil
}
