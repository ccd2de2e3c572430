package config

import (
	"fmt"
	"strings"
)

// CheckoutConfig holds the fixed-rate tax applied on top of the cart
// subtotal at checkout.
type CheckoutConfig struct {
	TaxRate float64 `koanf:"taxrate"`
}

// String returns a string representation of the checkout configuration.
func (c *CheckoutConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Checkout ---\n")
	b.WriteString(fmt.Sprintf("  taxrate: %.2f\n", c.TaxRate))
	return b.String()
}

func (c *CheckoutConfig) Validate() error {
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		return fmt.Errorf("invalid checkout tax rate: %f", c.TaxRate)
	}
	return nil
}
