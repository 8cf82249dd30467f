package api_models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds JWT configuration
type Config struct {
	SecretKey           string
	AccessTokenDuration time.Duration
	Issuer              string
}

// AccessClaims represents the JWT claims issued to portal and app users
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
