package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SeatClass is the closed set of seat classes a booking may be made in.
type SeatClass string

const (
	SeatClassStandard SeatClass = "STANDARD"
	SeatClassVIP      SeatClass = "VIP"
	SeatClassPremium  SeatClass = "PREMIUM"
)

// Price multipliers per seat class.
var (
	standardMultiplier = decimal.NewFromInt(1)
	vipMultiplier      = decimal.RequireFromString("1.5")
	premiumMultiplier  = decimal.RequireFromString("2.0")
)

// IsValid checks if the seat class is one of the known values
func (c SeatClass) IsValid() bool {
	switch c {
	case SeatClassStandard, SeatClassVIP, SeatClassPremium:
		return true
	}
	return false
}

// String returns the string representation of SeatClass
func (c SeatClass) String() string {
	return string(c)
}

// Multiplier returns the price multiplier for the seat class. Unknown
// classes get the standard multiplier, matching ParseSeatClass.
func (c SeatClass) Multiplier() decimal.Decimal {
	switch c {
	case SeatClassVIP:
		return vipMultiplier
	case SeatClassPremium:
		return premiumMultiplier
	default:
		return standardMultiplier
	}
}

// ParseSeatClass normalizes raw input to a SeatClass. Unrecognized or
// empty input falls back to Standard; callers that want to reject such
// input instead should validate with SeatClass.IsValid first.
func ParseSeatClass(raw string) SeatClass {
	switch SeatClass(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeatClassVIP:
		return SeatClassVIP
	case SeatClassPremium:
		return SeatClassPremium
	default:
		return SeatClassStandard
	}
}

// IsKnownSeatClass reports whether raw names a member of the closed
// enumeration (case-insensitive).
func IsKnownSeatClass(raw string) bool {
	return SeatClass(strings.ToUpper(strings.TrimSpace(raw))).IsValid()
}

// ComputeTotal returns basePrice * multiplier(class) * quantity using
// exact decimal arithmetic. The quantity is passed through as-is; the
// caller is responsible for enforcing a lower bound.
func ComputeTotal(basePrice decimal.Decimal, class SeatClass, quantity int) decimal.Decimal {
	return basePrice.Mul(class.Multiplier()).Mul(decimal.NewFromInt(int64(quantity)))
}
