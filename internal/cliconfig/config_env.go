package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (CARCAST_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("CARCAST_HOST"), &cfg.Host)
	s.setString("admin-addr", os.Getenv("CARCAST_ADMIN_ADDR"), &cfg.AdminAddr)
	s.setString("log-level", os.Getenv("CARCAST_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("CARCAST_LOG_FORMAT"), &cfg.LogFormat)
	s.setString("log-file", os.Getenv("CARCAST_LOG_FILE"), &cfg.LogFile)

	if err := s.setIntFromString("port", os.Getenv("CARCAST_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("CARCAST_SEND_INTERVAL"), &cfg.SendInterval); err != nil {
		return err
	}
	if err := s.setDuration("write-timeout", os.Getenv("CARCAST_WRITE_TIMEOUT"), &cfg.WriteTimeout); err != nil {
		return err
	}
	if err := s.setInt64FromString("seed", os.Getenv("CARCAST_SEED"), &cfg.Seed); err != nil {
		return err
	}

	s.setBoolFromString("log-frames", os.Getenv("CARCAST_LOG_FRAMES"), &cfg.LogFrames)

	return nil
}
