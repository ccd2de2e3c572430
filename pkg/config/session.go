package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionConfig controls the anonymous visitor session cookie. The session
// identifier partitions remote cart records, so the cookie lifetime decides
// how long an abandoned cart survives.
type SessionConfig struct {
	CookieName string        `koanf:"cookiename"`
	TTL        time.Duration `koanf:"ttl"`
}

// String returns a string representation of the session configuration.
func (c *SessionConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Session ---\n")
	b.WriteString(fmt.Sprintf("  cookiename: %s\n", c.CookieName))
	b.WriteString(fmt.Sprintf("  ttl: %s\n", c.TTL))
	return b.String()
}

func (c *SessionConfig) Validate() error {
	if c.CookieName == "" {
		return fmt.Errorf("session cookie name is not configured")
	}
	if c.TTL <= 0 {
		return fmt.Errorf("session TTL is not configured")
	}
	return nil
}
