package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims *Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestValidateToken(t *testing.T) {
	SetJWTSecret("")
	_, err := ValidateToken("anything")
	assert.ErrorIs(t, err, ErrJWTSecretNotConfigured)

	SetJWTSecret("utils-secret")
	t.Cleanup(func() { SetJWTSecret("") })

	valid := &Claims{
		UserID: 3, Username: "maria", Role: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	claims, err := ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("utils-secret"), valid))
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.UserID)
	assert.Equal(t, "Admin", claims.Role)

	noExpiry := &Claims{UserID: 3, Role: "Admin"}
	_, err = ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("utils-secret"), noExpiry))
	assert.Error(t, err, "tokens without exp are rejected")

	_, err = ValidateToken(sign(t, jwt.SigningMethodHS256, []byte("someone-else"), valid))
	assert.Error(t, err)

	_, err = ValidateToken(sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid))
	assert.Error(t, err, "unsigned tokens are rejected")
}
