// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Mail      MailConfig      `mapstructure:"mail"`
	Events    EventsConfig    `mapstructure:"events"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SchedulerConfig controls when the reminder batch job fires. Timezone must be
// an IANA zone name; the window for "tomorrow" is computed in that zone, never
// in the host's local zone.
type SchedulerConfig struct {
	CronSpec string `mapstructure:"cron_spec"`
	Timezone string `mapstructure:"timezone"`
}

// StoreConfig names the record collections in the document store.
type StoreConfig struct {
	AppointmentsCollection string `mapstructure:"appointments_collection"`
	PatientsCollection     string `mapstructure:"patients_collection"`
	PageSize               int    `mapstructure:"page_size"`
}

type DatabaseConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MailConfig holds the outbound-mail identity. An empty FromEmail means no
// identity is configured: dispatches are skipped with a warning, never failed.
type MailConfig struct {
	AWSRegion string `mapstructure:"aws_region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// EventsConfig holds settings for the patient-created stream consumer.
type EventsConfig struct {
	Stream       string `mapstructure:"stream"`
	Group        string `mapstructure:"group"`
	Consumer     string `mapstructure:"consumer"`
	DedupTTL     int    `mapstructure:"dedup_ttl"`     // seconds
	BlockTimeout int    `mapstructure:"block_timeout"` // milliseconds
}

// RemindersConfig holds settings for the reminder batch job.
type RemindersConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	LockTTL     int `mapstructure:"lock_ttl"` // seconds
	Timeout     int `mapstructure:"timeout"`  // milliseconds, per run
}

// AuthConfig holds Keycloak settings for the manual trigger endpoint.
type AuthConfig struct {
	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
	} `mapstructure:"keycloak"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
