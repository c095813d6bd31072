package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/farm-maintenance/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService("test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	return service
}

func TestNewService(t *testing.T) {
	service, err := NewService("", 0)
	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	_, err = NewService("short", time.Hour)
	assert.Error(t, err)
}

func TestService_GenerateToken(t *testing.T) {
	service := newTestService(t)

	token, err := service.GenerateToken("mqtt-ingest", models.RoleOperator)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = service.GenerateToken("", models.RoleOperator)
	assert.Error(t, err)

	_, err = service.GenerateToken("someone", models.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService(t)

	token, _ := service.GenerateToken("field-tablet-07", models.RoleViewer)

	// Test valid token
	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "field-tablet-07", claims.Subject)
	assert.Equal(t, models.RoleViewer, claims.Role)

	// Test invalid token
	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	// Test token with Bearer prefix
	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	// Token signed with another secret
	other, _ := NewService("another-secret-abcdefgh", time.Hour)
	foreign, _ := other.GenerateToken("x", models.RoleAdmin)
	_, err = service.ValidateToken(foreign)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_RejectsUnknownRole(t *testing.T) {
	service := newTestService(t)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "x",
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString(service.jwtSecret)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := newTestService(t)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "x",
		"role": string(models.RoleAdmin),
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
	token, err := raw.SignedString(service.jwtSecret)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := newTestService(t)

	// Test valid header
	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	// Test empty header
	_, err = service.ExtractTokenFromHeader("")
	assert.Equal(t, ErrInvalidToken, err)

	// Test invalid format
	_, err = service.ExtractTokenFromHeader("InvalidFormat")
	assert.Equal(t, ErrInvalidToken, err)

	// Test missing token
	_, err = service.ExtractTokenFromHeader("Bearer ")
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_TokenExpiration(t *testing.T) {
	service := newTestService(t)

	token, _ := service.GenerateToken("ops", models.RoleAdmin)

	// Token should be valid immediately
	claims, err := service.ValidateToken(token)
	require.NoError(t, err)

	// Check expiration time
	now := time.Now().Unix()
	assert.Greater(t, claims.Exp, now)
	assert.LessOrEqual(t, claims.Exp, now+int64(service.TokenExpiry().Seconds())+1)
}
