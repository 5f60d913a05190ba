package models

import "github.com/golang-jwt/jwt/v5"

// SessionRole distinguishes students planning schedules from catalog administrators.
type SessionRole string

const (
	RoleStudent SessionRole = "STUDENT"
	RoleAdmin   SessionRole = "ADMIN"
)

// SessionClaims is the JWT payload identifying a workspace owner.
type SessionClaims struct {
	OwnerID string      `json:"owner_id"`
	Role    SessionRole `json:"role"`
	jwt.RegisteredClaims
}
