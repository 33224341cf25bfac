package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Hola  ", "hola"},
		{"Estoy   MUY\tansiosa\n", "estoy muy ansiosa"},
		{"", ""},
		{"   ", ""},
		{"NO PUEDO MA\u0301S", "no puedo más"},
		{"Ya no quiero vivir así", "ya no quiero vivir así"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestLocale(t *testing.T) {
	assert.Equal(t, "es", Locale("es-AR"))
	assert.Equal(t, "pt", Locale("pt_BR"))
	assert.Equal(t, "en", Locale("EN"))
	assert.Equal(t, "", Locale(""))
	assert.Equal(t, "", Locale("not a tag"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "María", Title("maría"))
	assert.Equal(t, "Carlos", Title("  CARLOS "))
}
