package slug

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple two words", "Hello World", "hello-world"},
		{"punctuation marks", "Hello, World! How's it going?", "hello-world-hows-it-going"},
		{"ampersand", "Rock & Roll", "rock-roll"},
		{"surrounding whitespace", "  Go Tips  ", "go-tips"},
		{"tabs and newlines", "Go\tand\nRust", "go-and-rust"},
		{"existing hyphens", "Server-Side -- Rendering", "server-side-rendering"},
		{"digits", "Top 10 Tools 2026", "top-10-tools-2026"},
		{"non latin only", "日本語", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.input))
		})
	}
}

func TestUnique(t *testing.T) {
	used := map[string]bool{"hello-world": true, "hello-world-2": true}
	got, err := Unique("Hello World", "post", func(c string) (bool, error) { return used[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", got)
}

func TestUniqueFallback(t *testing.T) {
	got, err := Unique("日本語", "post", func(string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, "post", got)
}

func TestUniquePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Unique("Hello", "post", func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestUniqueGivesUpWithRandomSuffix(t *testing.T) {
	got, err := Unique("Busy", "post", func(string) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.Regexp(t, `^busy-[0-9a-f]{8}$`, got)
}
