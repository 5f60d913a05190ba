package dto

import (
	"time"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// CreateSessionRequest starts an anonymous workspace session. AdminKey unlocks catalog writes.
type CreateSessionRequest struct {
	AdminKey string `json:"admin_key" validate:"omitempty,max=256"`
}

// SessionResponse carries the bearer token for subsequent requests.
type SessionResponse struct {
	Token     string             `json:"token"`
	OwnerID   string             `json:"owner_id"`
	Role      models.SessionRole `json:"role"`
	ExpiresAt time.Time          `json:"expires_at"`
}
