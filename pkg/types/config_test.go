package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "zero config is valid",
			config: Config{},
		},
		{
			name:   "debug level with data dir",
			config: Config{DataDir: "/tmp/data", LogLevel: "debug"},
		},
		{
			name:    "unknown log level returns ErrLogLevelUnknown",
			config:  Config{LogLevel: "verbose"},
			wantErr: ErrLogLevelUnknown,
		},
		{
			name:    "negative busy timeout",
			config:  Config{BusyTimeoutMillis: -1},
			wantErr: ErrBusyTimeoutNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigBusyTimeout(t *testing.T) {
	if got := (Config{}).BusyTimeout(); got != DefaultBusyTimeoutMillis {
		t.Errorf("default busy timeout = %d, want %d", got, DefaultBusyTimeoutMillis)
	}
	if got := (Config{BusyTimeoutMillis: 250}).BusyTimeout(); got != 250 {
		t.Errorf("busy timeout = %d, want 250", got)
	}
}
