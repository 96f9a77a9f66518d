package config

import (
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNetwork(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateNetwork() error {
	switch c.Network.Environment {
	case EnvironmentLocal, EnvironmentTestnet:
	default:
		return fmt.Errorf("network.environment must be %q or %q, got %q",
			EnvironmentLocal, EnvironmentTestnet, c.Network.Environment)
	}
	if c.Network.UnitDecimals < 0 || c.Network.UnitDecimals > MaxUnitDecimals {
		return fmt.Errorf("network.unit_decimals must be between 0 and %d", MaxUnitDecimals)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
