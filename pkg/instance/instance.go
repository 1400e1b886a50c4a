package instance

import "os"

// GetID returns the process instance identifier used in logs. It prefers an
// explicit MARGINLY_INSTANCE_ID, then the platform dyno name, then the host.
func GetID() string {
	for _, key := range []string{"MARGINLY_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
