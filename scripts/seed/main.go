// Command seed bootstraps a fresh database with the fee catalogue, the
// service counters and the initial staff accounts. It is idempotent: rows
// that already exist are left untouched.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/fqms/fees-queue-api/pkg/config"
	"github.com/fqms/fees-queue-api/pkg/database"
)

type seedCounter struct {
	Number int
	Name   string
}

type seedStaff struct {
	Email    string
	FullName string
	StaffID  string
	Role     string
	Counter  int
}

var (
	feeTypes = []string{"Tuition", "Hostel", "Examination", "Library", "Transport"}
	counters = []seedCounter{
		{1, "Tuition and Hostel"},
		{2, "Examination"},
		{3, "General"},
	}
	staff = []seedStaff{
		{"admin@college.edu", "System Administrator", "ADM01", "admin", 0},
		{"meera@college.edu", "Meera Nair", "ACC01", "accountant", 1},
		{"vikram@college.edu", "Vikram Rao", "ACC02", "accountant", 2},
	}
)

func main() {
	var defaultPassword string
	flag.StringVar(&defaultPassword, "password", "changeme123", "initial password for seeded accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedFeeTypes(ctx, db); err != nil {
		log.Fatalf("failed to seed fee types: %v", err)
	}
	if err := seedCounters(ctx, db); err != nil {
		log.Fatalf("failed to seed counters: %v", err)
	}
	if err := seedStaffAccounts(ctx, db, defaultPassword); err != nil {
		log.Fatalf("failed to seed staff accounts: %v", err)
	}

	fmt.Println("seed completed")
}

func seedFeeTypes(ctx context.Context, db *sqlx.DB) error {
	const query = `
		INSERT INTO fee_types (id, type_name, description, active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (type_name) DO NOTHING`

	for _, name := range feeTypes {
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), name, name+" fees"); err != nil {
			return fmt.Errorf("fee type %s: %w", name, err)
		}
	}
	return nil
}

func seedCounters(ctx context.Context, db *sqlx.DB) error {
	const query = `
		INSERT INTO counters (id, counter_number, counter_name, active, next_seq, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, 0, NOW(), NOW())
		ON CONFLICT (counter_number) DO NOTHING`

	for _, c := range counters {
		if _, err := db.ExecContext(ctx, query, uuid.NewString(), c.Number, c.Name); err != nil {
			return fmt.Errorf("counter %d: %w", c.Number, err)
		}
	}
	return nil
}

func seedStaffAccounts(ctx context.Context, db *sqlx.DB, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	const userQuery = `
		INSERT INTO users (id, email, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
		RETURNING id`

	const accountantQuery = `
		INSERT INTO accountants (id, user_id, full_name, staff_id, counter_id, created_at)
		VALUES ($1, $2, $3, $4,
			(SELECT id FROM counters WHERE counter_number = $5), NOW())
		ON CONFLICT (staff_id) DO NOTHING`

	for _, s := range staff {
		var userID string
		err := db.QueryRowContext(ctx, userQuery, uuid.NewString(), s.Email, string(hash), s.Role).Scan(&userID)
		if err != nil {
			// Conflict returns no row; the account already exists.
			continue
		}
		if s.Role != "accountant" {
			continue
		}
		if _, err := db.ExecContext(ctx, accountantQuery, uuid.NewString(), userID, s.FullName, s.StaffID, s.Counter); err != nil {
			return fmt.Errorf("accountant %s: %w", s.StaffID, err)
		}
	}
	return nil
}
