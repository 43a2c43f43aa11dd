package config

import "errors"

// ApplicationConfiguration contains settings not related to list shell
// behaviour.
type ApplicationConfiguration struct {
	// LogLevel is one of zap levels ("debug", "info", "warn", ...).
	LogLevel string `yaml:"LogLevel" toml:"LogLevel"`
	// LogPath is a file to write logs to, stderr is used if it's empty.
	LogPath    string       `yaml:"LogPath" toml:"LogPath"`
	Prometheus BasicService `yaml:"Prometheus" toml:"Prometheus"`
}

// Validate checks ApplicationConfiguration for internal consistency.
func (a *ApplicationConfiguration) Validate() error {
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("Prometheus: no addresses for enabled service")
	}
	for _, addr := range a.Prometheus.Addresses {
		if addr == "" {
			return errors.New("Prometheus: empty address")
		}
	}
	return nil
}
