package jwt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	SetSecret("test-secret")
	defer SetSecret("")

	id := uuid.New()
	tok, err := GenerateToken(id, "cashier@example.com", "Cashier", "cashier", []string{"sale:create"}, "v1")
	require.NoError(t, err)

	claims, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "cashier", claims.Role)
	assert.Equal(t, []string{"sale:create"}, claims.Privileges)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	SetSecret("one")
	tok, err := GenerateToken(uuid.New(), "a@b.c", "A", "admin", nil, "v")
	require.NoError(t, err)

	SetSecret("two")
	defer SetSecret("")

	_, err = ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateEmpty(t *testing.T) {
	_, err := ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
