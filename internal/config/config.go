package config

import (
	"fmt"
	"time"
)

const (
	DefaultMaxRoomSize = 10
	// ~100 meters, roughly one football field
	DefaultProximityThresholdMiles = 0.062
	DefaultReconnectGracePeriod    = 5 * time.Minute
	DefaultEmptyRoomLifetime       = 5 * time.Minute
	DefaultScrollbackLimit         = 50
	DefaultClientMessageRate       = 5.0
	DefaultClientMessageBurst      = 10
)

type Config struct {
	ServerAddr     string
	StaticDir      string
	AllowedOrigins []string

	MaxRoomSize             int
	ProximityThresholdMiles float64
	ReconnectGracePeriod    time.Duration
	EmptyRoomLifetime       time.Duration
	ScrollbackLimit         int
	ClientMessageRate       float64
	ClientMessageBurst      int
}

func NewConfig(serverAddr, staticDir string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}

	return &Config{
		ServerAddr:              serverAddr,
		StaticDir:               staticDir,
		AllowedOrigins:          allowedOrigins,
		MaxRoomSize:             DefaultMaxRoomSize,
		ProximityThresholdMiles: DefaultProximityThresholdMiles,
		ReconnectGracePeriod:    DefaultReconnectGracePeriod,
		EmptyRoomLifetime:       DefaultEmptyRoomLifetime,
		ScrollbackLimit:         DefaultScrollbackLimit,
		ClientMessageRate:       DefaultClientMessageRate,
		ClientMessageBurst:      DefaultClientMessageBurst,
	}, nil
}

// Validate checks the tuning knobs after any overrides are applied.
func (c *Config) Validate() error {
	if c.MaxRoomSize < 1 {
		return fmt.Errorf("max room size must be at least 1")
	}
	if c.ProximityThresholdMiles < 0 {
		return fmt.Errorf("proximity threshold cannot be negative")
	}
	if c.ReconnectGracePeriod <= 0 {
		return fmt.Errorf("reconnect grace period must be positive")
	}
	if c.EmptyRoomLifetime <= 0 {
		return fmt.Errorf("empty room lifetime must be positive")
	}
	if c.ScrollbackLimit < 0 {
		return fmt.Errorf("scrollback limit cannot be negative")
	}
	if c.ClientMessageRate <= 0 || c.ClientMessageBurst < 1 {
		return fmt.Errorf("client message rate and burst must be positive")
	}

	return nil
}
