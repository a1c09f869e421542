// Package numerator provides domain contracts for sequential business identifiers.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known series names. Each maps to a row in sys_sequences.
const (
	SeriesInvoice   = "invoice"
	SeriesProduct   = "product"
	SeriesCustomer  = "customerId"
	SeriesTailoring = "tailoring"
)

// DefaultPadWidth is the minimum width of the numeric part.
const DefaultPadWidth = 4

// Config holds numbering configuration for one series.
type Config struct {
	// Series is the counter name in storage.
	Series string

	// Prefix added to all numbers (e.g., "INV", "PRD")
	Prefix string

	// PadWidth is the minimum number width (default 4)
	PadWidth int
}

var (
	InvoiceConfig   = Config{Series: SeriesInvoice, Prefix: "INV", PadWidth: DefaultPadWidth}
	ProductConfig   = Config{Series: SeriesProduct, Prefix: "PRD", PadWidth: DefaultPadWidth}
	CustomerConfig  = Config{Series: SeriesCustomer, Prefix: "CUS", PadWidth: DefaultPadWidth}
	TailoringConfig = Config{Series: SeriesTailoring, Prefix: "TLR", PadWidth: DefaultPadWidth}
)

// ConfigFor returns the configuration of a known series.
func ConfigFor(series string) (Config, bool) {
	for _, cfg := range []Config{InvoiceConfig, ProductConfig, CustomerConfig, TailoringConfig} {
		if cfg.Series == series {
			return cfg, true
		}
	}
	return Config{}, false
}

// Format renders n as prefix + zero-padded number, e.g. INV0007.
// Values wider than PadWidth are printed in full (INV12345).
func (c Config) Format(n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = DefaultPadWidth
	}
	return fmt.Sprintf("%s%0*d", c.Prefix, width, n)
}

// Parse extracts the numeric part of a formatted identifier.
func (c Config) Parse(formatted string) (int64, error) {
	digits, ok := strings.CutPrefix(formatted, c.Prefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("identifier %q does not match prefix %q", formatted, c.Prefix)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("identifier %q has invalid numeric part", formatted)
	}
	return n, nil
}
