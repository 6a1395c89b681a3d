package models

import "github.com/golang-jwt/jwt/v5"

// Roles accepted from the identity service's tokens.
const (
	RoleAdmin     = "ADMIN"
	RoleScheduler = "SCHEDULER"
	RoleTeacher   = "TEACHER"
)

// JWTClaims are the claims this API expects in access tokens. Tokens are
// issued by the institution's identity service; this API only validates them.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
