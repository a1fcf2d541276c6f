// Package format renders ledger quantities and money for display. Values are
// truncated, never rounded up, so a label never overstates a quantity.
package format

import (
	"strings"

	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Decimal truncates d to 3 places and drops trailing zeros: 2.5000 -> "2.5"
func Decimal(d decimal.Decimal) string {
	return d.Truncate(3).String()
}

// Tons renders a canonical quantity, e.g. "2.5 t"
func Tons(tons decimal.Decimal) string {
	return Decimal(tons) + " t"
}

// Quantity renders a quantity in its input unit next to its tons
//
//	500 kg    -> "500 kg (0.5 t)"
//	3 cont.   -> "3 cont. (78 t)"
//	2.5 t     -> "2.5 t"
func Quantity(quantity decimal.Decimal, unit valueobject.MassUnit, tons decimal.Decimal) string {
	switch unit {
	case valueobject.UnitKilogram:
		return Decimal(quantity) + " kg (" + Tons(tons) + ")"
	case valueobject.UnitContainer:
		return Decimal(quantity) + " cont. (" + Tons(tons) + ")"
	default:
		return Tons(tons)
	}
}

// Containers renders a container count, e.g. "1.923 cont."
func Containers(count decimal.Decimal) string {
	return Decimal(count) + " cont."
}

// Money renders an amount in its currency: "$1,234.50" or "1 234 567 UZS".
// UZS has no minor unit in practice and is shown rounded to whole sums.
func Money(amount decimal.Decimal, currency valueobject.Currency) string {
	switch currency {
	case valueobject.UZS:
		whole := printer.Sprintf("%d", amount.Round(0).IntPart())
		return strings.ReplaceAll(whole, ",", " ") + " UZS"
	default:
		sign := ""
		if amount.IsNegative() {
			sign = "-"
			amount = amount.Neg()
		}
		return sign + "$" + printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
	}
}
