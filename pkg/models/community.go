package models

import (
	"time"

	"github.com/google/uuid"
)

// Community is the tenant every reading, alert, device and user belongs to
type Community struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User represents an authenticated dashboard user
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	CommunityID string    `json:"community_id"`
	Language    string    `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
}
