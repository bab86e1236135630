package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the kiosk issues tokens for.
const RoleAdmin = "admin"

// AdminTokenPayload captures the data available when minting an admin JWT.
type AdminTokenPayload struct {
	KioskID  string
	ClientIP string
	JTI      string
}

// AdminClaims represents the typed JWT handed to the admin dashboard.
type AdminClaims struct {
	Role     string `json:"role"`
	KioskID  string `json:"kiosk_id,omitempty"`
	ClientIP string `json:"client_ip,omitempty"`
	jwt.RegisteredClaims
}
