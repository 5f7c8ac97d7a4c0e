package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "wwwroot", []string{"http://localhost:5173"})
		assert.NoError(t, err)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.Equal(t, "wwwroot", cfg.StaticDir)
		assert.Equal(t, DefaultMaxRoomSize, cfg.MaxRoomSize)
		assert.Equal(t, DefaultProximityThresholdMiles, cfg.ProximityThresholdMiles)
		assert.Equal(t, DefaultReconnectGracePeriod, cfg.ReconnectGracePeriod)
		assert.Equal(t, DefaultEmptyRoomLifetime, cfg.EmptyRoomLifetime)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty server address", func(t *testing.T) {
		_, err := NewConfig("", "", nil)
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero room size", func(c *Config) { c.MaxRoomSize = 0 }},
		{"negative threshold", func(c *Config) { c.ProximityThresholdMiles = -1 }},
		{"zero grace period", func(c *Config) { c.ReconnectGracePeriod = 0 }},
		{"zero room lifetime", func(c *Config) { c.EmptyRoomLifetime = 0 }},
		{"negative scrollback", func(c *Config) { c.ScrollbackLimit = -1 }},
		{"zero message rate", func(c *Config) { c.ClientMessageRate = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig("localhost:8000", "", nil)
			assert.NoError(t, err)
			tc.mutate(cfg)
			assert.Errorf(t, cfg.Validate(), "expected validation error for %s", tc.name)
		})
	}
}

func TestConfigValidate_overrides(t *testing.T) {
	cfg, err := NewConfig("localhost:8000", "", nil)
	assert.NoError(t, err)

	cfg.ReconnectGracePeriod = 30 * time.Second
	cfg.EmptyRoomLifetime = time.Minute
	cfg.MaxRoomSize = 4
	assert.NoError(t, cfg.Validate())
}
