package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDev(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"development", true},
		{"dev", true},
		{"DEV", true},
		{"Development", true},
		{"production", false},
		{"", false},
		{"devel", false},
	}

	for _, tt := range tests {
		t.Run("value "+tt.value, func(t *testing.T) {
			t.Setenv("AUTHGW_ENV", tt.value)
			assert.Equal(t, tt.want, IsDev())
		})
	}
}
