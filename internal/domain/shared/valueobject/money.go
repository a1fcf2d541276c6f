package valueobject

import (
	"strings"

	"github.com/logistics/backend/internal/domain/shared"
)

// Currency is one of the settlement currencies. USD and UZS are independent
// ledgers and are never converted into each other.
type Currency string

const (
	USD Currency = "USD"
	UZS Currency = "UZS"
)

// DefaultCurrency applies to allocations recorded before currencies existed
const DefaultCurrency = USD

// ParseCurrency normalises a currency code. An empty code yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if c == "" {
		return DefaultCurrency, nil
	}
	if !c.IsValid() {
		return "", shared.NewDomainError(shared.CodeInvalidCurrency, "unsupported currency: "+code)
	}
	return c, nil
}

// IsValid reports whether c is a supported currency
func (c Currency) IsValid() bool {
	switch c {
	case USD, UZS:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Currencies lists supported currencies in display order
func Currencies() []Currency {
	return []Currency{USD, UZS}
}
