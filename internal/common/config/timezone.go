// internal/common/config/timezone.go
package config

import "time"

func loadLocation(name string) (*time.Location, error) {
	return time.LoadLocation(name)
}

// Location resolves the configured IANA zone. Validated at load time, so
// callers after Load can treat an error here as a programming bug.
func (s SchedulerConfig) Location() (*time.Location, error) {
	return loadLocation(s.Timezone)
}
