package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account lifecycle state.
type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusBanned   UserStatus = "banned"
	StatusDeleted  UserStatus = "deleted"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusBanned, StatusDeleted:
		return true
	}
	return false
}

// OTPWindow is how long an issued verification code stays valid.
const OTPWindow = 15 * time.Minute

// OTP is an outstanding one-time passcode.
type OTP struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the code is no longer usable at now.
func (o OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// User represents an account holder.
type User struct {
	BaseModel
	FullName       string     `gorm:"not null" json:"fullName"`
	Email          string     `gorm:"not null" json:"email"`
	CredentialHash string     `gorm:"not null" json:"-"`
	IsIndividual   bool       `gorm:"not null" json:"isIndividual"`
	Status         UserStatus `gorm:"type:varchar(16);not null" json:"status"`
	IsVerified     bool       `gorm:"not null" json:"isVerified"`
	OTPCode        *string    `gorm:"column:otp_code" json:"-"`
	OTPExpiresAt   *time.Time `gorm:"column:otp_expires_at" json:"-"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
}

// PendingOTP returns the outstanding code, if any.
func (u *User) PendingOTP() (OTP, bool) {
	if u.OTPCode == nil || *u.OTPCode == "" || u.OTPExpiresAt == nil {
		return OTP{}, false
	}
	return OTP{Code: *u.OTPCode, ExpiresAt: *u.OTPExpiresAt}, true
}

// SetPendingOTP replaces any outstanding code.
func (u *User) SetPendingOTP(otp OTP) {
	code := otp.Code
	expiresAt := otp.ExpiresAt
	u.OTPCode = &code
	u.OTPExpiresAt = &expiresAt
}

// ClearPendingOTP removes the outstanding code.
func (u *User) ClearPendingOTP() {
	u.OTPCode = nil
	u.OTPExpiresAt = nil
}

// MarkVerified completes email verification.
func (u *User) MarkVerified() {
	u.ClearPendingOTP()
	u.IsVerified = true
	u.Status = StatusActive
}

// PublicUser is the externally visible view of a user.
type PublicUser struct {
	ID           uuid.UUID  `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	IsIndividual bool       `json:"isIndividual"`
	IsVerified   bool       `json:"isVerified"`
	Status       UserStatus `json:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Public returns the view safe to hand to clients.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		IsIndividual: u.IsIndividual,
		IsVerified:   u.IsVerified,
		Status:       u.Status,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser holds the fields needed to create an account.
type NewUser struct {
	FullName     string
	Email        string
	Password     string
	IsIndividual bool
	PendingOTP   *OTP
}

// Clone returns a deep copy, so stores never share pointers with callers.
func (u *User) Clone() *User {
	c := *u
	if u.OTPCode != nil {
		code := *u.OTPCode
		c.OTPCode = &code
	}
	if u.OTPExpiresAt != nil {
		exp := *u.OTPExpiresAt
		c.OTPExpiresAt = &exp
	}
	if u.LastLoginAt != nil {
		last := *u.LastLoginAt
		c.LastLoginAt = &last
	}
	return &c
}
