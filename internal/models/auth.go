package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim carried by access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RolePlanner UserRole = "PLANNER"
	RoleViewer  UserRole = "VIEWER"
)

// JWTClaims is the access token payload issued by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
