package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	token, err := Sign("user-1", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSignDefaultsTTL(t *testing.T) {
	token, err := Sign("user-1", "user", 0)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseExpired(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = Parse(expired)
	assert.True(t, errors.Is(err, jwtlib.ErrTokenExpired))
}

func TestParseRejectsForeignSecret(t *testing.T) {
	claims := Claims{UserID: "user-1"}
	forged, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = Parse(forged)
	assert.True(t, errors.Is(err, jwtlib.ErrTokenSignatureInvalid))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("not-a-token")
	assert.True(t, errors.Is(err, jwtlib.ErrTokenMalformed))
}

func TestParseRequiresUserID(t *testing.T) {
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{Role: "user"}).SignedString(secret)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.True(t, errors.Is(err, jwtlib.ErrTokenInvalidClaims))
}
