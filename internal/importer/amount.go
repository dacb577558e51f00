package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a signed amount written either Brazilian style
// ("R$ 1.234,56", "-588,74") or plain ("1234.56", "1,234.56"). Parentheses
// mark a negative value.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "R$")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, "\u00a0", "")

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}

	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	clean = normalizeSeparators(clean)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	if negative {
		d = d.Neg()
	}

	return d, nil
}

// normalizeSeparators rewrites s to use '.' as the decimal separator and no
// grouping. Whichever of ',' and '.' comes last is the decimal separator; a
// lone ',' is always decimal.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case dot > comma && comma >= 0:
		return strings.ReplaceAll(s, ",", "")
	case dot >= 0 && strings.Count(s, ".") > 1:
		// "1.234.567" has only grouping dots.
		return strings.ReplaceAll(s, ".", "")
	}

	return s
}
