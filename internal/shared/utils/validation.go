// Package utils holds input checks shared by the dashboard server and CLI.
package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Length limits, in runes.
const (
	MaxTraceIDLength     = 128
	MaxQueryLength       = 256
	MaxFilterNameLength  = 64
	MaxFilterValueLength = 256
)

// MaxMessageSize caps a single inbound dashboard websocket frame.
const MaxMessageSize = 16 * 1024

// TraceIDPattern accepts UUIDs, ULIDs and dotted or prefixed variants.
var TraceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

// ValidateString checks length bounds and rejects null bytes.
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateTraceID checks a trace id taken from a URL or the command line.
func ValidateTraceID(id string) error {
	if err := ValidateString(id, "trace id", 1, MaxTraceIDLength, true); err != nil {
		return err
	}
	if !TraceIDPattern.MatchString(id) {
		return fmt.Errorf("trace id %q contains invalid characters", id)
	}
	return nil
}

// ValidateFilters checks a free-text query and named filter values.
func ValidateFilters(query string, values map[string]string) error {
	if err := ValidateString(query, "query", 0, MaxQueryLength, false); err != nil {
		return err
	}
	for name, value := range values {
		if err := ValidateString(name, "filter name", 1, MaxFilterNameLength, true); err != nil {
			return err
		}
		if err := ValidateString(value, "filter "+name, 0, MaxFilterValueLength, false); err != nil {
			return err
		}
	}
	return nil
}
