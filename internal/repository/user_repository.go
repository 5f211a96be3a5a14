package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fqms/fees-queue-api/internal/models"
)

const userColumns = `id, email, roll_number, password_hash, role, active, last_login, created_at, updated_at`

// UserRepository provides database access to the identity store.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByRollNumber returns a user by student roll number.
func (r *UserRepository) FindByRollNumber(ctx context.Context, rollNumber string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE roll_number = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, rollNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by roll number: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// RegisterStudent creates the account row and its student profile in one
// transaction. A unique-violation on email or roll number surfaces as
// ErrDuplicateIdentity.
func (r *UserRepository) RegisterStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.UserID = user.ID

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const userQuery = `INSERT INTO users (id, email, roll_number, password_hash, role, active, created_at, updated_at)
        VALUES (:id, :email, :roll_number, :password_hash, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("insert user: %w", err)
	}

	const profileQuery = `INSERT INTO students (id, user_id, full_name, roll_number, email, phone_number, year, branch, created_at)
        VALUES (:id, :user_id, :full_name, :roll_number, :email, :phone_number, :year, :branch, :created_at)`
	if _, err := tx.NamedExecContext(ctx, profileQuery, profile); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentity
		}
		return fmt.Errorf("insert student profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit register tx: %w", err)
	}
	return nil
}

// StudentByUserID fetches the student profile owned by the given account.
func (r *UserRepository) StudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	const query = `SELECT id, user_id, full_name, roll_number, email, phone_number, year, branch, created_at
        FROM students WHERE user_id = $1 LIMIT 1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user id: %w", err)
	}
	return &profile, nil
}

// AccountantByUserID fetches an accountant profile with its assigned counter.
func (r *UserRepository) AccountantByUserID(ctx context.Context, userID string) (*models.AccountantDetail, error) {
	const query = `SELECT a.id, a.user_id, a.full_name, a.staff_id, a.counter_id, a.created_at,
        c.counter_name, c.counter_number
        FROM accountants a
        LEFT JOIN counters c ON c.id = a.counter_id
        WHERE a.user_id = $1 LIMIT 1`
	var detail models.AccountantDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find accountant by user id: %w", err)
	}
	return &detail, nil
}

// CreateAuditLog inserts an audit trail record.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, new_values, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :action, :resource, :resource_id, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ErrDuplicateIdentity marks a registration that collides with an existing
// email or roll number.
var ErrDuplicateIdentity = errors.New("email or roll number already exists")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
