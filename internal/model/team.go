package model

import "time"

// Team is the tenant partition. Every product, supplier, and transaction
// belongs to exactly one team; the backend enforces the scoping via the
// X-Team-ID request header.
type Team struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamMember is one row of a team roster.
type TeamMember struct {
	UserID   int64      `json:"user_id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}
