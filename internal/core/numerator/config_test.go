package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Format(t *testing.T) {
	assert.Equal(t, "INV0007", InvoiceConfig.Format(7))
	assert.Equal(t, "PRD0001", ProductConfig.Format(1))
	assert.Equal(t, "CUS12345", CustomerConfig.Format(12345))
	assert.Equal(t, "X0003", Config{Prefix: "X"}.Format(3))
}

func TestConfig_Parse(t *testing.T) {
	n, err := InvoiceConfig.Parse("INV0042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = InvoiceConfig.Parse("PRD0042")
	assert.Error(t, err)
	_, err = InvoiceConfig.Parse("INV")
	assert.Error(t, err)
	_, err = InvoiceConfig.Parse("INVabc")
	assert.Error(t, err)
}

func TestConfigFor(t *testing.T) {
	cfg, ok := ConfigFor("customerId")
	require.True(t, ok)
	assert.Equal(t, "CUS", cfg.Prefix)

	_, ok = ConfigFor("unknown")
	assert.False(t, ok)
}
