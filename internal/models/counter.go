package models

import "time"

// Counter is a payment-processing station staffed by at most one accountant.
// NextSeq is the per-counter queue sequence; every admitted or skipped entry
// draws its position from it so positions are strictly increasing.
type Counter struct {
	ID            string    `db:"id" json:"id"`
	CounterNumber int       `db:"counter_number" json:"counter_number"`
	CounterName   string    `db:"counter_name" json:"counter_name"`
	Active        bool      `db:"active" json:"active"`
	NextSeq       int64     `db:"next_seq" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CounterDetail joins a counter with its assigned accountant.
type CounterDetail struct {
	Counter
	AccountantID   *string `db:"accountant_id" json:"accountant_id,omitempty"`
	AccountantName *string `db:"accountant_name" json:"accountant_name,omitempty"`
}

// FeeType is a fee category students can pay against.
type FeeType struct {
	ID          string    `db:"id" json:"id"`
	TypeName    string    `db:"type_name" json:"type_name"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
