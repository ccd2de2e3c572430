// Package config defines the storefront service configuration.
package config

import (
	"fmt"
	"strings"

	pkgConfig "github.com/huertohogar/storefront/pkg/config"
)

// Config is the complete configuration of the storefront service.
type Config struct {
	HTTPServer pkgConfig.HTTPConfig       `koanf:"server"`
	Log        pkgConfig.LogConfig        `koanf:"log"`
	PProf      pkgConfig.PProfConfig      `koanf:"pprof"`
	Shutdown   pkgConfig.ShutdownConfig   `koanf:"shutdown"`
	Nats       pkgConfig.NATSConfig       `koanf:"nats"`
	PocketBase pkgConfig.PocketBaseConfig `koanf:"pocketbase"`
	Session    pkgConfig.SessionConfig    `koanf:"session"`
	Checkout   pkgConfig.CheckoutConfig   `koanf:"checkout"`
	Telemetry  pkgConfig.TelemetryConfig  `koanf:"telemetry"`
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Server ---\n")
	b.WriteString(fmt.Sprintf("  port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  timeout.read: %s\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  timeout.write: %s\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  timeout.idle: %s\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  timeout.readHeader: %s\n", c.HTTPServer.Timeout.ReadHeader))
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.PocketBase.String())
	b.WriteString(c.Session.String())
	b.WriteString(c.Checkout.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

// Validate checks the configuration section by section.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.PocketBase.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Checkout.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}
