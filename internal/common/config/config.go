package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Polling PollingConfig `mapstructure:"polling"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds settings for the evaluation backend.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	UploadTimeout  int    `mapstructure:"upload_timeout"`  // milliseconds
	MaxRetries     int    `mapstructure:"max_retries"`
}

// RequestTimeoutDuration returns the control-call timeout.
func (a APIConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Millisecond
}

// UploadTimeoutDuration returns the longer timeout used for file uploads.
func (a APIConfig) UploadTimeoutDuration() time.Duration {
	return time.Duration(a.UploadTimeout) * time.Millisecond
}

// PollingConfig holds settings for job status polling.
type PollingConfig struct {
	Interval int `mapstructure:"interval"` // milliseconds
}

// IntervalDuration returns the delay between status polls.
func (p PollingConfig) IntervalDuration() time.Duration {
	return time.Duration(p.Interval) * time.Millisecond
}

// SessionConfig selects where the signed-in session is persisted.
type SessionConfig struct {
	Backend string      `mapstructure:"backend"` // "file" or "redis"
	Path    string      `mapstructure:"path"`    // file backend
	Redis   RedisConfig `mapstructure:"redis"`   // redis backend
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds; 0 means no expiry
}

// TTLDuration returns the session key expiry.
func (r RedisConfig) TTLDuration() time.Duration {
	return time.Duration(r.TTL) * time.Second
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
