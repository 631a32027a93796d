package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode identifies a display currency
type CurrencyCode string

const (
	CurrencyUSD CurrencyCode = money.USD
	CurrencyEUR CurrencyCode = money.EUR
	CurrencyMAD CurrencyCode = money.MAD
	CurrencyGBP CurrencyCode = money.GBP
)

// ReferenceCurrency is the unit every stored amount is expressed in
const ReferenceCurrency = CurrencyUSD

// SymbolPosition tells where the symbol goes relative to the number
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// CurrencyConfig describes how a currency is converted and rendered.
// Rate is the multiplier from the reference currency to this currency.
type CurrencyConfig struct {
	Code     CurrencyCode
	Symbol   string
	Position SymbolPosition
	Rate     decimal.Decimal
}

// Validate ensures the config can be used for conversion and display
func (c CurrencyConfig) Validate() error {
	if c.Code == "" {
		return errors.New("currency code cannot be empty")
	}
	if money.GetCurrency(string(c.Code)) == nil {
		return fmt.Errorf("currency %s is not an ISO 4217 code", c.Code)
	}
	if c.Symbol == "" {
		return fmt.Errorf("currency %s must have a symbol", c.Code)
	}
	if c.Position != SymbolBefore && c.Position != SymbolAfter {
		return fmt.Errorf("currency %s symbol position must be before or after", c.Code)
	}
	if c.Rate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("currency %s rate must be positive", c.Code)
	}
	return nil
}

// DefaultCurrencyConfigs are the fixed rates the platform displays with
func DefaultCurrencyConfigs() []CurrencyConfig {
	return []CurrencyConfig{
		{Code: CurrencyUSD, Symbol: "$", Position: SymbolBefore, Rate: decimal.NewFromInt(1)},
		{Code: CurrencyEUR, Symbol: "€", Position: SymbolAfter, Rate: decimal.RequireFromString("0.92")},
		{Code: CurrencyMAD, Symbol: "DH", Position: SymbolAfter, Rate: decimal.NewFromInt(10)},
		{Code: CurrencyGBP, Symbol: "£", Position: SymbolBefore, Rate: decimal.RequireFromString("0.79")},
	}
}

// CurrencyTable is an immutable lookup of currency configs.
// Lookups of unknown codes resolve to the reference currency config.
type CurrencyTable struct {
	configs  map[CurrencyCode]CurrencyConfig
	fallback CurrencyConfig
}

// NewCurrencyTable builds a table from the given configs.
// The reference currency must be present since it is the fallback.
func NewCurrencyTable(configs ...CurrencyConfig) (*CurrencyTable, error) {
	table := &CurrencyTable{
		configs: make(map[CurrencyCode]CurrencyConfig, len(configs)),
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, exists := table.configs[cfg.Code]; exists {
			return nil, fmt.Errorf("duplicate currency %s", cfg.Code)
		}
		table.configs[cfg.Code] = cfg
	}

	fallback, ok := table.configs[ReferenceCurrency]
	if !ok {
		return nil, fmt.Errorf("currency table must contain %s", ReferenceCurrency)
	}
	table.fallback = fallback

	return table, nil
}

// DefaultCurrencyTable returns the table built from DefaultCurrencyConfigs
func DefaultCurrencyTable() *CurrencyTable {
	table, err := NewCurrencyTable(DefaultCurrencyConfigs()...)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the config for code, or the reference currency config
func (t *CurrencyTable) Lookup(code CurrencyCode) CurrencyConfig {
	if cfg, ok := t.configs[code]; ok {
		return cfg
	}
	return t.fallback
}

// Has reports whether code has its own entry in the table
func (t *CurrencyTable) Has(code CurrencyCode) bool {
	_, ok := t.configs[code]
	return ok
}

// Codes returns the configured codes in alphabetical order
func (t *CurrencyTable) Codes() []CurrencyCode {
	codes := make([]CurrencyCode, 0, len(t.configs))
	for code := range t.configs {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// ParseCurrencyCode normalizes user input such as " mad " into a code.
// It does not check the code against any table.
func ParseCurrencyCode(s string) CurrencyCode {
	return CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
}
