package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"0":         "$0",
		"950":       "$950",
		"50000":     "$50,000",
		"300000":    "$300,000",
		"1234567.5": "$1,234,568",
		"-1200":     "-$1,200",
	}

	for in, want := range cases {
		assert.Equal(t, want, FormatUSD(decimal.RequireFromString(in)), in)
	}
}
