package valueobject

import (
	"strings"

	"github.com/logistics/backend/internal/domain/shared"
)

// MassUnit is a quantity unit accepted on order lines and allocations.
// Tons are the canonical unit.
type MassUnit string

const (
	UnitKilogram  MassUnit = "kg"
	UnitTon       MassUnit = "t"
	UnitContainer MassUnit = "container"
)

// legacy records were written with Cyrillic unit labels
var unitAliases = map[string]MassUnit{
	"kg":        UnitKilogram,
	"кг":        UnitKilogram,
	"t":         UnitTon,
	"т":         UnitTon,
	"ton":       UnitTon,
	"container": UnitContainer,
	"cont":      UnitContainer,
	"конт":      UnitContainer,
}

// ParseMassUnit resolves a unit tag, failing with INVALID_UNIT when unknown
func ParseMassUnit(tag string) (MassUnit, error) {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return u, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidUnit, "unrecognized unit: "+tag)
}

// IsValid reports whether u is a known unit
func (u MassUnit) IsValid() bool {
	switch u {
	case UnitKilogram, UnitTon, UnitContainer:
		return true
	}
	return false
}

func (u MassUnit) String() string {
	return string(u)
}
