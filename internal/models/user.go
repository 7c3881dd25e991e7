package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Phone    string `json:"-"` // E.164, used by the sms notification channel

	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile holds per-user counters. Reputation is stored and reported only.
type UserProfile struct {
	ID         int `gorm:"primaryKey" json:"id"`
	UserID     int `gorm:"uniqueIndex;not null" json:"user_id"`
	Reputation int `gorm:"not null;default:0" json:"reputation"`
}

// RevokedToken records a logged-out access token until it would have expired anyway.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;size:64" json:"token_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
