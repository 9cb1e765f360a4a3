package domain

import "time"

// User represents an authenticated account within the platform.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Picture      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
