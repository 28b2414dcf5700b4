package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTraceID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"3f1c2a9e-7d4b-4c1e-9a0f-5b6d7e8f9a01", false},
		{"01J9Z3K8Q4M7X2V5N6B8C0D1E2", false},
		{"llm:req.42", false},
		{"", true},
		{"a/b", true},
		{"with space", true},
		{strings.Repeat("a", MaxTraceIDLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := ValidateTraceID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	assert.NoError(t, ValidateString("", "x", 1, 5, false))
	assert.Error(t, ValidateString("", "x", 1, 5, true))
	assert.Error(t, ValidateString("toolong", "x", 1, 5, false))
	assert.Error(t, ValidateString("a\x00b", "x", 1, 5, false))
	assert.NoError(t, ValidateString("héllo", "x", 1, 5, false))
}

func TestValidateFilters(t *testing.T) {
	assert.NoError(t, ValidateFilters("timeout", map[string]string{"model": "gpt-4", "status": ""}))
	assert.Error(t, ValidateFilters(strings.Repeat("q", MaxQueryLength+1), nil))
	assert.Error(t, ValidateFilters("", map[string]string{"": "x"}))
	assert.Error(t, ValidateFilters("", map[string]string{"model": "bad\x00"}))
}
