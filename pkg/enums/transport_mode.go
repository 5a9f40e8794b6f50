package enums

import (
	"fmt"
	"strings"
)

// TransportMode is how an import group's cargo travels.
type TransportMode string

const (
	TransportModeLand     TransportMode = "land"
	TransportModeAir      TransportMode = "air"
	TransportModeMaritime TransportMode = "maritime"
)

var validTransportModes = []TransportMode{
	TransportModeLand,
	TransportModeAir,
	TransportModeMaritime,
}

var legacyTransportIDs = map[string]TransportMode{
	"terrestre": TransportModeLand,
	"aereo":     TransportModeAir,
	"maritimo":  TransportModeMaritime,
}

// AllTransportModes returns the transport modes in canonical order.
func AllTransportModes() []TransportMode {
	modes := make([]TransportMode, len(validTransportModes))
	copy(modes, validTransportModes)
	return modes
}

func (t TransportMode) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransportMode.
func (t TransportMode) IsValid() bool {
	for _, candidate := range validTransportModes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransportMode converts raw input into a TransportMode.
func ParseTransportMode(value string) (TransportMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validTransportModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if mode, ok := legacyTransportIDs[normalized]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("invalid transport mode %q", value)
}
