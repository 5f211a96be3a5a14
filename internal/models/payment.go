package models

import "time"

// PaymentStatus enumerates the lifecycle states of a queue entry.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusRemoved    PaymentStatus = "removed"
)

// Active reports whether the status counts toward the live queue.
func (s PaymentStatus) Active() bool {
	return s == StatusPending || s == StatusProcessing
}

// Terminal reports whether the status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusRemoved
}

// QueueEntry is one admitted payment request. QueuePosition is an immutable
// per-counter sequence number; the displayed rank is computed on read.
type QueueEntry struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	TokenNumber   string        `db:"token_number" json:"token_number"`
	CounterID     string        `db:"counter_id" json:"counter_id"`
	FeeTypeID     string        `db:"fee_type_id" json:"fee_type_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Description   string        `db:"description" json:"description"`
	QueuePosition int64         `db:"queue_position" json:"queue_position"`
	Status        PaymentStatus `db:"status" json:"status"`
	AssignedTo    *string       `db:"assigned_to" json:"assigned_to,omitempty"`
	RemovalReason *string       `db:"removal_reason" json:"removal_reason,omitempty"`
	ProcessedAt   *time.Time    `db:"processed_at" json:"processed_at,omitempty"`
	RemovedAt     *time.Time    `db:"removed_at" json:"removed_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// QueueEntryDetail annotates an entry with display names and its effective
// rank among the counter's active entries.
type QueueEntryDetail struct {
	QueueEntry
	StudentName   string  `db:"student_name" json:"student_name"`
	RollNumber    string  `db:"roll_number" json:"roll_number"`
	CounterName   string  `db:"counter_name" json:"counter_name"`
	CounterNumber int     `db:"counter_number" json:"counter_number"`
	FeeType       string  `db:"fee_type" json:"fee_type"`
	EffectiveRank *int64  `db:"effective_rank" json:"effective_rank,omitempty"`
	ProcessedBy   *string `db:"processed_by" json:"processed_by,omitempty"`
}

// QueueStats is the per-counter aggregate projection. The "today" window
// starts at the server's local midnight.
type QueueStats struct {
	CounterID      string    `json:"counter_id"`
	QueueCount     int       `db:"queue_count" json:"queue_count"`
	ProcessedToday int       `db:"processed_today" json:"processed_today"`
	RevenueToday   float64   `db:"revenue_today" json:"revenue_today"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Receipt is the read-only summary produced by a successful process call.
// It is derived from the completed entry, never persisted on its own.
type Receipt struct {
	ReceiptNumber  string    `json:"receipt_number"`
	PaymentID      string    `json:"payment_id"`
	TokenNumber    string    `json:"token_number"`
	StudentName    string    `json:"student_name"`
	RollNumber     string    `json:"roll_number"`
	CounterName    string    `json:"counter_name"`
	CounterNumber  int       `json:"counter_number"`
	AccountantName string    `json:"accountant_name"`
	FeeType        string    `json:"fee_type"`
	Amount         float64   `json:"amount"`
	Description    string    `json:"description,omitempty"`
	PaidAt         time.Time `json:"paid_at"`
}
