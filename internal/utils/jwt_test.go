package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	storeID := int64(7)

	token, expires, err := m.GenerateJWT(JWTClaims{UserID: 42, Email: "owner@example.com", Role: "store_owner", StoreID: &storeID})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "store_owner", claims.Role)
	require.NotNil(t, claims.StoreID)
	assert.Equal(t, int64(7), *claims.StoreID)
	assert.Nil(t, claims.SubLocationID)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewJWTManager("other", time.Hour).GenerateJWT(JWTClaims{UserID: 1})
		require.NoError(t, err)
		_, err = m.ValidateJWT(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := expired.GenerateJWT(JWTClaims{UserID: 1})
		require.NoError(t, err)
		_, err = m.ValidateJWT(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateJWT("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSignature(t *testing.T) {
	body := []byte(`{"sales":[]}`)
	sig := GenerateSignature(body, "pos-secret")
	assert.True(t, VerifySignature(body, sig, "pos-secret"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature([]byte(`{}`), sig, "pos-secret"))
}

func TestAppError(t *testing.T) {
	err := NewInsufficientStockError(5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 400, HTTPStatus(err))
	require.NotNil(t, err.AvailableStock)
	assert.Equal(t, 5, *err.AvailableStock)

	assert.Equal(t, 409, HTTPStatus(ErrDuplicateSKU))
	assert.Equal(t, 404, HTTPStatus(ErrProductNotFound))
	assert.Equal(t, 400, HTTPStatus(NewValidationError("quantity", "must be positive")))
	assert.Equal(t, 403, HTTPStatus(ErrForbidden))
	assert.NotErrorIs(t, ErrDuplicateSKU, ErrDuplicateBarcode)
}
