package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	api_models "gitlab.com/vescueye/flp.iot_bridge/src/production/FLP.Models/api"
)

func newTestService(duration time.Duration) *Service {
	return NewService(api_models.Config{
		SecretKey:           "test-secret",
		AccessTokenDuration: duration,
		Issuer:              "flap-bridge-test",
	})
}

func TestService_RoundTrip(t *testing.T) {
	svc := newTestService(time.Hour)

	token, err := svc.GenerateAccessToken("doc-1", "doctor")
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "doc-1", claims.UserID)
	require.Equal(t, "doctor", claims.Role)
	require.Equal(t, "flap-bridge-test", claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestService_RejectsExpired(t *testing.T) {
	svc := newTestService(-time.Minute)

	token, err := svc.GenerateAccessToken("doc-1", "doctor")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestService_RejectsForeignSignature(t *testing.T) {
	other := NewService(api_models.Config{SecretKey: "other-secret", AccessTokenDuration: time.Hour})
	token, err := other.GenerateAccessToken("doc-1", "doctor")
	require.NoError(t, err)

	_, err = newTestService(time.Hour).ValidateAccessToken(token)
	require.Error(t, err)
}

func TestService_RejectsGarbage(t *testing.T) {
	_, err := newTestService(time.Hour).ValidateAccessToken("not.a.jwt")
	require.Error(t, err)
}

func TestService_ReadsPortalUserIDClaim(t *testing.T) {
	now := time.Now()
	portalToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "64b7f0c2a1d3e4f5a6b7c8d9",
		"role":   "hospital",
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	})
	signed, err := portalToken.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	claims, err := newTestService(time.Hour).ValidateAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "64b7f0c2a1d3e4f5a6b7c8d9", claims.UserID)
	require.Equal(t, "hospital", claims.Role)
}
