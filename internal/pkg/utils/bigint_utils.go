package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	formatted := decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(int32(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimSuffix(formatted, ".")
	}
	if formatted == "" || formatted == "-" {
		return "", fmt.Errorf("formatting resulted in empty string for %s", amount.String())
	}
	return formatted, nil
}

// FormatBaseUnits parses an integer string in base units (wei, token atoms) and
// formats it with the given decimals.
func FormatBaseUnits(raw string, decimals uint8) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0", nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "", fmt.Errorf("invalid integer amount %q", raw)
	}
	return FormatBigInt(amount, decimals)
}

// ParseDecimal parses a decimal string, treating empty or malformed input as zero.
func ParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
