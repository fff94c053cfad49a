package carcast

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/bft-labs/carcast/internal/domain"
)

// Defaults for a Config.
const (
	DefaultHost         = "localhost"
	DefaultPort         = 12345
	DefaultSendInterval = 2 * time.Second
)

// Config holds the server configuration.
// Use DefaultConfig() to get a Config with the standard values.
type Config struct {
	// Host and Port form the listen address.
	Host string
	Port int

	// SendInterval is the pause between two frames on one connection.
	SendInterval time.Duration

	// WriteTimeout bounds a single frame write. Zero means no deadline.
	WriteTimeout time.Duration

	// Seed seeds the default random source. Zero seeds from the clock.
	Seed int64

	// LogFrames logs each frame's raw bytes at debug level.
	LogFrames bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		SendInterval: DefaultSendInterval,
	}
}

// SetDefaults fills zero-valued fields with defaults.
// Port 0 is kept: it asks the OS for a free port.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.SendInterval == 0 {
		c.SendInterval = DefaultSendInterval
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.SendInterval <= 0 {
		return fmt.Errorf("%w: send interval must be positive", domain.ErrInvalidConfig)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("%w: write timeout must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
