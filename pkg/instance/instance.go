package instance

import (
	"os"

	"github.com/angelmondragon/importgroups-backend/pkg/env"
)

// GetID returns an identifier for this process, used to tell replicas apart
// in logs. It checks IMPORTGROUPS_INSTANCE_ID, then the platform dyno name,
// then the hostname.
func GetID() string {
	if id := env.FirstOf("IMPORTGROUPS_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
