package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToMinorUnits converts a major-unit amount to integer minor units (×100).
// Amounts carrying sub-cent precision are rejected rather than rounded:
// an invoice total of 12.345 is a data problem, not something to silently
// round half-up before charging.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s does not convert to exact minor units", amount)
	}
	return minor.IntPart(), nil
}
