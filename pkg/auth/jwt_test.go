package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain"
)

func newManager() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:         "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: time.Hour,
		Issuer:         "clinicdesk-test",
	})
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newManager()
	pair, err := m.GenerateAccessToken(&domain.Claims{UserID: "u-1", Role: domain.RoleDoctor, DoctorID: "doc-1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, &domain.Claims{UserID: "u-1", Role: domain.RoleDoctor, DoctorID: "doc-1"}, claims)
}

func TestJWTManager_Expired(t *testing.T) {
	m := newManager()
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	pair, err := m.GenerateAccessToken(&domain.Claims{UserID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	m := newManager()

	other := NewJWTManager(config.JWTConfig{Secret: "another-secret-another-secret-xx", AccessTokenTTL: time.Hour, Issuer: "clinicdesk-test"})
	pair, err := other.GenerateAccessToken(&domain.Claims{UserID: "u-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// A doctor token signed with the right key but no doctor_id.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, clinicClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "clinicdesk-test",
			Subject:   "u-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: string(domain.RoleDoctor),
	})
	signed, err := raw.SignedString([]byte(m.cfg.Secret))
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingDoctor)
}

func TestJWTManager_GenerateValidatesClaims(t *testing.T) {
	m := newManager()
	_, err := m.GenerateAccessToken(&domain.Claims{UserID: "u", Role: domain.RoleDoctor})
	assert.ErrorIs(t, err, ErrMissingDoctor)

	_, err = m.GenerateAccessToken(&domain.Claims{UserID: "u", Role: domain.RoleReceptionist})
	assert.ErrorIs(t, err, ErrMissingDoctor)

	_, err = m.GenerateAccessToken(&domain.Claims{UserID: "u", Role: "patient"})
	assert.Error(t, err)
}

func TestJWTManager_ReceptionistTokenWithoutDoctorRejected(t *testing.T) {
	m := newManager()
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, clinicClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "clinicdesk-test",
			Subject:   "u-3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: string(domain.RoleReceptionist),
	})
	signed, err := raw.SignedString([]byte(m.cfg.Secret))
	require.NoError(t, err)
	_, err = m.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrMissingDoctor)
}
