package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageIncludesDetailsAndCause(t *testing.T) {
	cause := stderrors.New("strconv.ParseFloat: parsing \"abc\": invalid syntax")
	err := Wrap(cause, ErrorTypeParse, "invalid number").
		WithDetail("line", 4).
		WithDetail("column", "ERA")

	assert.Equal(t,
		`parse: invalid number (column=ERA, line=4): strconv.ParseFloat: parsing "abc": invalid syntax`,
		err.Error())
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "ignored"))
}

func TestIsTypeThroughFmtWrapping(t *testing.T) {
	inner := New(ErrorTypeIO, "file not readable")
	outer := fmt.Errorf("startup: %w", inner)

	assert.True(t, IsType(outer, ErrorTypeIO))
	assert.False(t, IsType(outer, ErrorTypeParse))
	assert.Equal(t, ErrorTypeIO, TypeOf(outer))
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("plain")))
}

func TestFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"io", New(ErrorTypeIO, "x"), true},
		{"parse", New(ErrorTypeParse, "x"), true},
		{"config", New(ErrorTypeConfig, "x"), true},
		{"validation", New(ErrorTypeValidation, "x"), false},
		{"plain", stderrors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Fatal(tt.err))
		})
	}
}
