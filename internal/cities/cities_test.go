package cities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mérida", "merida"},
		{"  MÉRIDA  ", "merida"},
		{"Playa  del   Carmen", "playa del carmen"},
		{"Cancún", "cancun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Mérida", "merida"))
	assert.True(t, Equal("CANCÚN", "cancun "))
	assert.False(t, Equal("Mérida", "Campeche"))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "MER", Initials("Mérida"))
	assert.Equal(t, "PDC", Initials("Playa del Carmen"))
	assert.Equal(t, "CA", Initials("Ca"))
	assert.Equal(t, "XX", Initials("   "))
}
