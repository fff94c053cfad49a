package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"CARCAST_HOST":          "0.0.0.0",
				"CARCAST_PORT":          "9000",
				"CARCAST_SEND_INTERVAL": "500ms",
				"CARCAST_WRITE_TIMEOUT": "1s",
				"CARCAST_SEED":          "-3",
				"CARCAST_ADMIN_ADDR":    ":9100",
				"CARCAST_LOG_LEVEL":     "debug",
				"CARCAST_LOG_FORMAT":    "json",
				"CARCAST_LOG_FRAMES":    "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Host:         "0.0.0.0",
				Port:         9000,
				SendInterval: 500 * time.Millisecond,
				WriteTimeout: time.Second,
				Seed:         -3,
				AdminAddr:    ":9100",
				LogLevel:     "debug",
				LogFormat:    "json",
				LogFrames:    true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"CARCAST_HOST": "env-host",
				"CARCAST_PORT": "9000",
			},
			changed:  map[string]bool{"host": true},
			initial:  Config{Host: "flag-host"},
			expected: Config{Host: "flag-host", Port: 9000},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"CARCAST_SEND_INTERVAL": "soon"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid port",
			envVars: map[string]string{"CARCAST_PORT": "http"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid seed",
			envVars: map[string]string{"CARCAST_SEED": "1.5"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "ignores empty values",
			envVars:  map[string]string{"CARCAST_HOST": ""},
			changed:  map[string]bool{},
			initial:  Config{Host: "localhost"},
			expected: Config{Host: "localhost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
