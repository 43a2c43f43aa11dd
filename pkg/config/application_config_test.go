package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationConfigurationValidate(t *testing.T) {
	cfg := ApplicationConfiguration{}
	require.NoError(t, cfg.Validate())

	cfg.Prometheus.Enabled = true
	require.Error(t, cfg.Validate())

	cfg.Prometheus.Addresses = []string{"localhost:2112"}
	require.NoError(t, cfg.Validate())

	cfg.Prometheus.Addresses = append(cfg.Prometheus.Addresses, "")
	require.Error(t, cfg.Validate())
}
