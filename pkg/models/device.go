package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceCredential is a provisioned API key bound to one community
type DeviceCredential struct {
	ID          uuid.UUID  `json:"id"`
	APIKey      string     `json:"api_key,omitempty"`
	CommunityID string     `json:"community_id"`
	DeviceName  string     `json:"device_name,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
}

// KeyPrefix returns the first characters of the key for log lines
func KeyPrefix(apiKey string) string {
	if len(apiKey) <= 8 {
		return apiKey
	}
	return apiKey[:8] + "..."
}
