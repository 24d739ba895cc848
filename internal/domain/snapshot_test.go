package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateKeyUsesPlatformLocalDay(t *testing.T) {
	t.Parallel()

	// 16:00 UTC is already past midnight in UTC+9.
	generatedAt := time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02", DateKey(generatedAt))

	// Morning UTC stays on the same local day.
	assert.Equal(t, "2024-01-01", DateKey(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)))

	// Exactly 15:00 UTC is local midnight of the next day.
	assert.Equal(t, "2024-01-02", DateKey(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)))
}

func TestSanitizeDescription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"strips tags", "<p>hello <b>world</b></p>", "hello world"},
		{"collapses whitespace", "one\n\n  two\tthree", "one two three"},
		{"entities", "a &amp; b", "a & b"},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeDescription(tc.in))
		})
	}
}
