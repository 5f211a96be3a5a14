package models

import "time"

// AccountantProfile is the 1:1 extension record for accounts with the accountant role.
type AccountantProfile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	StaffID   string    `db:"staff_id" json:"staff_id"`
	CounterID *string   `db:"counter_id" json:"counter_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AccountantDetail joins the profile with its assigned counter, if any.
type AccountantDetail struct {
	AccountantProfile
	CounterName   *string `db:"counter_name" json:"counter_name,omitempty"`
	CounterNumber *int    `db:"counter_number" json:"counter_number,omitempty"`
}
