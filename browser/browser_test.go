package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want bool
	}{
		{"chrome is valid", Chrome, true},
		{"firefox is valid", Firefox, true},
		{"edge is valid", Edge, true},
		{"safari is invalid", Type("safari"), false},
		{"empty is invalid", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.IsValid())
		})
	}
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 10000.0, milliseconds(10*time.Second))
	assert.Equal(t, 1.5, milliseconds(1500*time.Microsecond))
}

func TestPlaywrightLauncher_ShutdownWithoutInitialize(t *testing.T) {
	l := NewPlaywrightLauncher(false)
	assert.NoError(t, l.Shutdown())
}
