package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := FirstOf(key); val != "" {
		return val
	}
	return fallback
}

// FirstOf returns the first non-blank value among keys. Earlier keys win, so
// service-prefixed names can shadow platform-provided ones.
func FirstOf(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}
