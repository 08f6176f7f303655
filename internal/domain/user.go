package domain

import "time"

// User is the domain model for accounts that submit or triage tickets.
// Admins work the queue; everyone else only sees their own tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
