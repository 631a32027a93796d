package currency

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
)

// DefaultDecimals is the number of fractional digits used by Format callers
// that do not need a specific precision
const DefaultDecimals = 2

// MaxDecimals caps the fractional digits any format renders
const MaxDecimals = 8

// largeDecimals caps the fractional digits of FormatLarge
const largeDecimals = 2

// Converter converts reference-currency amounts into display currencies and
// renders them. It is stateless and never fails: unknown codes use the
// reference currency config.
type Converter struct {
	Table *domain.CurrencyTable
}

// NewConverter creates a new Converter over the given currency table
func NewConverter(table *domain.CurrencyTable) *Converter {
	return &Converter{
		Table: table,
	}
}

// Convert returns amount multiplied by the rate of code
func (c *Converter) Convert(amount decimal.Decimal, code domain.CurrencyCode) decimal.Decimal {
	return amount.Mul(c.Table.Lookup(code).Rate)
}

// Format converts amount and renders it with exactly decimals fractional digits.
// Negative decimals are treated as zero, values above MaxDecimals as MaxDecimals.
//
//	Format(100, USD, 2) == "$100.00"
//	Format(100, MAD, 2) == "1000.00 DH"
func (c *Converter) Format(amount decimal.Decimal, code domain.CurrencyCode, decimals int) string {
	cfg := c.Table.Lookup(code)
	return place(cfg, "", c.Convert(amount, code).StringFixed(fixedPlaces(decimals)))
}

// FormatWithSign is Format with a leading "+" when the rendered value is zero
// or positive. Negative numbers keep their own "-" next to the digits, and an
// amount that rounds to zero is shown as "+0".
func (c *Converter) FormatWithSign(amount decimal.Decimal, code domain.CurrencyCode, decimals int) string {
	places := fixedPlaces(decimals)
	rounded := c.Convert(amount, code).Round(places)

	sign := ""
	if !rounded.IsNegative() {
		sign = "+"
	}
	cfg := c.Table.Lookup(code)
	return place(cfg, sign, rounded.StringFixed(places))
}

// FormatLarge converts amount and renders it grouped by thousands with at
// most two fractional digits, dropping trailing fractional zeros.
//
//	FormatLarge(1234567, USD) == "$1,234,567"
//	FormatLarge(1234.5, USD)  == "$1,234.5"
func (c *Converter) FormatLarge(amount decimal.Decimal, code domain.CurrencyCode) string {
	cfg := c.Table.Lookup(code)
	return place(cfg, "", groupThousands(c.Convert(amount, code).Round(largeDecimals)))
}

// SymbolOf returns the symbol of code, or the reference currency symbol
func (c *Converter) SymbolOf(code domain.CurrencyCode) string {
	return c.Table.Lookup(code).Symbol
}

// FormatPercent renders a percentage with two fractional digits, e.g. "2.94%"
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

// FormatSignedPercent is FormatPercent with a "+" for zero and positive values
func FormatSignedPercent(pct decimal.Decimal) string {
	if pct.IsNegative() {
		return FormatPercent(pct)
	}
	return "+" + FormatPercent(pct)
}

// place puts the symbol around the number according to the currency position
func place(cfg domain.CurrencyConfig, sign, number string) string {
	if cfg.Position == domain.SymbolBefore {
		return sign + cfg.Symbol + number
	}
	return sign + number + " " + cfg.Symbol
}

// groupThousands renders d exactly with comma separated integer digits and
// the fraction without trailing zeros
func groupThousands(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	whole := d.Truncate(0)
	out := sign + humanize.BigComma(whole.BigInt())
	if frac := d.Sub(whole); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

func fixedPlaces(decimals int) int32 {
	switch {
	case decimals < 0:
		return 0
	case decimals > MaxDecimals:
		return MaxDecimals
	default:
		return int32(decimals)
	}
}
