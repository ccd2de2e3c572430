package config

import (
	"fmt"
	"strings"
	"time"
)

// PocketBaseConfig points at the hosted record-storage/auth service that
// owns every collection the storefront consumes.
type PocketBaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the PocketBase configuration.
func (c *PocketBaseConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- PocketBase ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *PocketBaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("pocketbase URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("pocketbase URL must start with http:// or https://: %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("pocketbase request timeout is not configured")
	}
	return nil
}
