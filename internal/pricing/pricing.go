// Package pricing holds the cart arithmetic. Amounts are exact decimals and
// are only rounded to cents when rendered.
package pricing

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/totem-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is anything priced per unit and carrying a quantity.
type Line interface {
	UnitPrice() decimal.Decimal
	Units() int
}

// ItemPrice is the base price plus every selected complement.
func ItemPrice(base decimal.Decimal, complements []catalog.Complement) decimal.Decimal {
	total := base
	for _, c := range complements {
		total = total.Add(c.Price)
	}
	return total
}

// LineTotal multiplies a unit price by its quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// CartTotal sums unit price times quantity over every line.
func CartTotal[L Line](lines []L) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.UnitPrice(), l.Units()))
	}
	return total
}

// ItemCount sums quantities for the cart badge.
func ItemCount[L Line](lines []L) int {
	n := 0
	for _, l := range lines {
		n += l.Units()
	}
	return n
}

// FormatBRL renders an amount as "R$ 26,40".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// ParseBRL reads back a value rendered by FormatBRL or typed with a comma.
func ParseBRL(value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), "R$"))
	raw = strings.Replace(raw, ",", ".", 1)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return amount, nil
}
