package utils

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens are issued by the identity provider; this service only verifies them
// with the shared HMAC secret.
var (
	jwtMu        sync.RWMutex
	jwtSecretKey []byte
)

// ErrJWTSecretNotConfigured is returned by ValidateToken before SetJWTSecret is called.
var ErrJWTSecretNotConfigured = errors.New("jwt secret not configured")

// Claims defines the JWT claims structure
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"` // User role for authorization
	jwt.RegisteredClaims
}

// SetJWTSecret installs the secret used to verify tokens.
func SetJWTSecret(secret string) {
	jwtMu.Lock()
	defer jwtMu.Unlock()
	jwtSecretKey = []byte(secret)
}

func currentSecret() []byte {
	jwtMu.RLock()
	defer jwtMu.RUnlock()
	return jwtSecretKey
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	secret := currentSecret()
	if len(secret) == 0 {
		return nil, ErrJWTSecretNotConfigured
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
