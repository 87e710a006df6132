package validator

import (
	"errors"
	"testing"

	"pos-backoffice/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     uuid.UUID        `validate:"uuid_required"`
	Name   string           `validate:"required"`
	Amount decimal.Decimal  `validate:"gte=0"`
	Extra  *decimal.Decimal `validate:"omitempty,gte=0"`
}

func TestCheckPasses(t *testing.T) {
	extra := decimal.RequireFromString("1.50")
	err := Check(&sample{ID: uuid.New(), Name: "x", Amount: decimal.RequireFromString("0.01"), Extra: &extra})
	assert.NoError(t, err)
}

func TestCheckRejectsNilUUID(t *testing.T) {
	err := Check(&sample{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sample.ID", verr.Field)
}

func TestCheckRejectsNegativeDecimal(t *testing.T) {
	neg := decimal.RequireFromString("-2")
	err := Check(&sample{ID: uuid.New(), Name: "x", Extra: &neg})
	require.Error(t, err)

	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sample.Extra", verr.Field)
}

func TestParseID(t *testing.T) {
	id := uuid.New()

	got, err := ParseID("id", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, bad := range []string{"not-a-uuid", "", "{" + id.String() + "}", "urn:uuid:" + id.String(), id.String()[:35]} {
		_, err := ParseID("id", bad)
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}
}
