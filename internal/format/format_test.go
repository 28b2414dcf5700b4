package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestDate(t *testing.T) {
	assert.Equal(t, "2024-05-01 08:30:05", Date(time.Date(2024, 5, 1, 8, 30, 5, 999, time.UTC)))
	assert.Equal(t, Placeholder, Date(time.Time{}))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"missing", nil, Unknown},
		{"sub-second", ptr(12.5), "12.50 ms"},
		{"just below a second", ptr(999.994), "999.99 ms"},
		{"one second", ptr(1000.0), "1.00 s"},
		{"seconds", ptr(2346.0), "2.35 s"},
		{"nan", ptr(math.NaN()), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.in))
		})
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, Unknown, Tokens(nil))
	assert.Equal(t, "0", Tokens(ptr(int64(0))))
	assert.Equal(t, "1,234,567", Tokens(ptr(int64(1234567))))
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1200, "1.2K"},
		{1000, "1K"},
		{3_450_000, "3.5M"},
		{1_250, "1.3K"},
		{999.96, "1K"},
		{999_940, "999.9K"},
		{999_950, "1M"},
		{999_950_000, "1B"},
		{-3_450_000, "-3.5M"},
		{5_000_000_000, "5B"},
		{math.Inf(1), "N/A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compact(tt.in), "Compact(%v)", tt.in)
	}
}

func TestCount(t *testing.T) {
	assert.Equal(t, "12,000", Count(12000))
}
