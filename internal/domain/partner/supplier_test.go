package partner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier(t *testing.T) {
	s, err := NewSupplier("  Tashkent Steel ", "+998 71 000 00 00", "")
	require.NoError(t, err)
	assert.Equal(t, "Tashkent Steel", s.Name)
	assert.NotEmpty(t, s.ID)

	_, err = NewSupplier(" ", "", "")
	assert.Error(t, err)

	_, err = NewSupplier(strings.Repeat("я", 201), "", "")
	assert.Error(t, err)
}
