package types

import (
	"errors"
	"fmt"
)

// Config holds the parameters for Backend.Attach.
type Config struct {
	// DataDir holds pictoboard.db. Empty means the current directory.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// LogLevel is one of debug, info, warn, error. Empty means info.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// BusyTimeoutMillis bounds how long SQLite waits on a locked database.
	// Zero selects DefaultBusyTimeoutMillis.
	BusyTimeoutMillis int `json:"busy_timeout_ms" yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// DefaultBusyTimeoutMillis is used when Config.BusyTimeoutMillis is zero.
const DefaultBusyTimeoutMillis = 5000

// Config validation errors.
var (
	ErrLogLevelUnknown     = errors.New("unknown log level")
	ErrBusyTimeoutNegative = errors.New("busy timeout must not be negative")
)

var knownLogLevels = map[string]bool{
	"":      true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if !knownLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: %q", ErrLogLevelUnknown, c.LogLevel)
	}
	if c.BusyTimeoutMillis < 0 {
		return ErrBusyTimeoutNegative
	}
	return nil
}

// BusyTimeout returns the effective busy timeout in milliseconds.
func (c Config) BusyTimeout() int {
	if c.BusyTimeoutMillis == 0 {
		return DefaultBusyTimeoutMillis
	}
	return c.BusyTimeoutMillis
}
