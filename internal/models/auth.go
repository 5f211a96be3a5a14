package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds the credential pair for authentication. The identifier is
// either an email address or a student roll number.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
	IP         string `json:"-"`
	UserAgent  string `json:"-"`
}

// LoginResponse returns the issued token and the authenticated user.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	IssuedAt  time.Time       `json:"issued_at"`
	User      UserInfo        `json:"user"`
	Student   *StudentProfile `json:"student,omitempty"`
}

// RegisterStudentRequest carries the student self-registration payload.
type RegisterStudentRequest struct {
	FullName    string `json:"full_name" validate:"required"`
	RollNumber  string `json:"roll_number" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Year        int    `json:"year" validate:"omitempty,min=1,max=6"`
	Branch      string `json:"branch"`
	Password    string `json:"password" validate:"required,min=6"`
	IP          string `json:"-"`
	UserAgent   string `json:"-"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	RollNumber *string  `json:"roll_number,omitempty"`
	Role       UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
	RollNumber string   `json:"roll_number,omitempty"`
	jwt.RegisteredClaims
}
