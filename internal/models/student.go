package models

import "time"

// StudentProfile is the 1:1 extension record for accounts with the student role.
type StudentProfile struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	RollNumber  string    `db:"roll_number" json:"roll_number"`
	Email       string    `db:"email" json:"email"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Year        int       `db:"year" json:"year"`
	Branch      string    `db:"branch" json:"branch"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentStats aggregates a student's payment history for the dashboard.
type StudentStats struct {
	TotalPayments int     `db:"total_payments" json:"total_payments"`
	PaidAmount    float64 `db:"paid_amount" json:"paid_amount"`
	PendingAmount float64 `db:"pending_amount" json:"pending_amount"`
	QueuePosition int     `json:"queue_position"`
}

// StudentDashboard is the composite projection served to the student home screen.
type StudentDashboard struct {
	Student        StudentProfile `json:"student"`
	Stats          StudentStats   `json:"stats"`
	RecentPayments []QueueEntry   `json:"recent_payments"`
	GeneratedAt    time.Time      `json:"generated_at"`
}
