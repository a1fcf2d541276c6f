package service

import (
	"github.com/logistics/backend/internal/domain/shared"
	"github.com/logistics/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultContainerTonnage is the tons-per-container used when neither the
// order nor the configuration supplies one.
var DefaultContainerTonnage = decimal.NewFromInt(26)

var kilogramsPerTon = decimal.NewFromInt(1000)

// UnitConversionService converts line and allocation quantities to tons.
// Results keep full decimal precision; rounding is a display concern.
type UnitConversionService struct {
	defaultTonnage decimal.Decimal
}

// NewUnitConversionService creates a conversion service. A non-positive
// defaultTonnage falls back to DefaultContainerTonnage.
func NewUnitConversionService(defaultTonnage decimal.Decimal) *UnitConversionService {
	if !defaultTonnage.IsPositive() {
		defaultTonnage = DefaultContainerTonnage
	}
	return &UnitConversionService{defaultTonnage: defaultTonnage}
}

// DefaultTonnage returns the tonnage applied when callers pass none
func (s *UnitConversionService) DefaultTonnage() decimal.Decimal {
	return s.defaultTonnage
}

// ToCanonical converts quantity in unit to tons. containerTonnage is only
// consulted for containers; nil or non-positive means the default.
func (s *UnitConversionService) ToCanonical(quantity decimal.Decimal, unit valueobject.MassUnit, containerTonnage *decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, shared.ErrInvalidQuantity
	}

	switch unit {
	case valueobject.UnitKilogram:
		return quantity.Div(kilogramsPerTon), nil
	case valueobject.UnitTon:
		return quantity, nil
	case valueobject.UnitContainer:
		return quantity.Mul(s.tonnage(containerTonnage)), nil
	default:
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidUnit, "unrecognized unit: "+string(unit))
	}
}

// ContainersFor returns how many containers hold tons. Display only.
func (s *UnitConversionService) ContainersFor(tons decimal.Decimal, containerTonnage *decimal.Decimal) decimal.Decimal {
	return tons.Div(s.tonnage(containerTonnage))
}

func (s *UnitConversionService) tonnage(containerTonnage *decimal.Decimal) decimal.Decimal {
	if containerTonnage != nil && containerTonnage.IsPositive() {
		return *containerTonnage
	}
	return s.defaultTonnage
}
