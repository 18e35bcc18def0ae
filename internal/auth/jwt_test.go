package auth

import (
	"testing"

	"fee-backend/internal/config"
	"fee-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "fee-backend-test"
	return NewJWTManager(cfg)
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()
	user := &models.User{ID: 7, Email: "admin@example.com", Role: "admin", IsActive: true}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.True(t, claims.IsActive)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := testManager()
	token, err := m.GenerateToken(&models.User{ID: 1, Email: "a@b.c", Role: "staff"})
	require.NoError(t, err)

	other := testManager()
	other.cfg.JWT.Secret = "different-secret"
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTempTokenIsNotAFullToken(t *testing.T) {
	m := testManager()
	user := &models.User{ID: 3, Email: "staff@example.com"}

	temp, err := m.GenerateTempToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateTempToken(temp)
	require.NoError(t, err)
	assert.Equal(t, 3, claims.UserID)
	assert.Equal(t, "2fa_pending", claims.Type)

	// A full token must not pass temp validation
	full, err := m.GenerateToken(&models.User{ID: 3, Email: "staff@example.com", Role: "staff"})
	require.NoError(t, err)
	_, err = m.ValidateTempToken(full)
	assert.Error(t, err)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-pass"))
	assert.False(t, VerifyPassword(hash, "wrong-pass"))
}
