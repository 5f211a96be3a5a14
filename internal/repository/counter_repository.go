package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fqms/fees-queue-api/internal/models"
)

// CounterRepository manages persistence for counters and fee types.
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository constructs a CounterRepository.
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// List returns all counters with their assigned accountant, ordered by number.
func (r *CounterRepository) List(ctx context.Context) ([]models.CounterDetail, error) {
	const query = `SELECT c.id, c.counter_number, c.counter_name, c.active, c.next_seq, c.created_at, c.updated_at,
        a.id AS accountant_id, a.full_name AS accountant_name
        FROM counters c
        LEFT JOIN accountants a ON a.counter_id = c.id
        ORDER BY c.counter_number`
	var counters []models.CounterDetail
	if err := r.db.SelectContext(ctx, &counters, query); err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	return counters, nil
}

// FindByID fetches a counter with its assigned accountant.
func (r *CounterRepository) FindByID(ctx context.Context, id string) (*models.CounterDetail, error) {
	const query = `SELECT c.id, c.counter_number, c.counter_name, c.active, c.next_seq, c.created_at, c.updated_at,
        a.id AS accountant_id, a.full_name AS accountant_name
        FROM counters c
        LEFT JOIN accountants a ON a.counter_id = c.id
        WHERE c.id = $1 LIMIT 1`
	var detail models.CounterDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find counter: %w", err)
	}
	return &detail, nil
}

// Create inserts a new counter. The queue sequence starts at zero.
func (r *CounterRepository) Create(ctx context.Context, counter *models.Counter) error {
	if counter.ID == "" {
		counter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	counter.CreatedAt = now
	counter.UpdatedAt = now
	const query = `INSERT INTO counters (id, counter_number, counter_name, active, next_seq, created_at, updated_at)
        VALUES (:id, :counter_number, :counter_name, :active, 0, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, counter); err != nil {
		return fmt.Errorf("create counter: %w", err)
	}
	return nil
}

// SetActive toggles a counter's availability.
func (r *CounterRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE counters SET active = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set counter active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ErrAccountantNotFound marks an assignment naming an accountant that does
// not exist.
var ErrAccountantNotFound = errors.New("accountant not found")

// AssignAccountant moves an accountant onto the counter, displacing any
// previous assignment of that accountant. A missing counter surfaces as
// sql.ErrNoRows, a missing accountant as ErrAccountantNotFound.
func (r *CounterRepository) AssignAccountant(ctx context.Context, counterID, accountantID string) error {
	const query = `UPDATE accountants SET counter_id = $2
        WHERE id = $1 AND EXISTS (SELECT 1 FROM counters WHERE id = $2)`
	res, err := r.db.ExecContext(ctx, query, accountantID, counterID)
	if err != nil {
		return fmt.Errorf("assign accountant: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	const counterQuery = `SELECT 1 FROM counters WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, counterQuery, counterID); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("check counter for assignment: %w", err)
	}
	return ErrAccountantNotFound
}

// ListFeeTypes returns active fee categories.
func (r *CounterRepository) ListFeeTypes(ctx context.Context) ([]models.FeeType, error) {
	const query = `SELECT id, type_name, description, active, created_at FROM fee_types WHERE active = true ORDER BY type_name`
	var feeTypes []models.FeeType
	if err := r.db.SelectContext(ctx, &feeTypes, query); err != nil {
		return nil, fmt.Errorf("list fee types: %w", err)
	}
	return feeTypes, nil
}

// FeeTypeExists checks whether the fee type references an active category.
func (r *CounterRepository) FeeTypeExists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM fee_types WHERE id = $1 AND active = true LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check fee type: %w", err)
	}
	return true, nil
}
