package validator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	Name   string          `validate:"required"`
	Amount decimal.Decimal `validate:"gte=0"`
}

func TestDecimalTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(priced{Name: "Mosquito fogging", Amount: decimal.RequireFromString("0.00")}))
	assert.NoError(t, v.Struct(priced{Name: "Mosquito fogging", Amount: decimal.RequireFromString("1250.50")}))
	assert.Error(t, v.Struct(priced{Name: "Mosquito fogging", Amount: decimal.RequireFromString("-0.01")}))
	assert.Error(t, v.Struct(priced{Amount: decimal.NewFromInt(10)}))
}
