package valueobject

import (
	"testing"

	"github.com/logistics/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Currency
		wantErr bool
	}{
		{"usd", "USD", USD, false},
		{"lowercase uzs", "uzs", UZS, false},
		{"empty defaults to usd", "", USD, false},
		{"whitespace defaults to usd", "  ", USD, false},
		{"unsupported", "EUR", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidCurrency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMassUnit(t *testing.T) {
	tests := []struct {
		input string
		want  MassUnit
	}{
		{"kg", UnitKilogram},
		{"KG", UnitKilogram},
		{"кг", UnitKilogram},
		{"t", UnitTon},
		{"т", UnitTon},
		{"container", UnitContainer},
		{" cont ", UnitContainer},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMassUnit(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}

	t.Run("unknown unit", func(t *testing.T) {
		_, err := ParseMassUnit("lb")
		assert.ErrorIs(t, err, shared.ErrInvalidUnit)
	})
}
