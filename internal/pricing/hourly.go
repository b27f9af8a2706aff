package pricing

import (
	"math"

	"github.com/shiva/chauffeur/internal/model"
)

// ─── Hourly Configuration ───────────────────────────────────
//
// Hourly bookings run 2 to 5 hours at a flat hourly rate, with two
// packaged offers:
//
//   3h  →  200.00
//   5h  →  350.00
//   else → hours × 80.00

const (
	MinHours = 2.0
	MaxHours = 5.0

	HourlyRate model.Money = 8000

	threeHourOffer model.Money = 20000
	fiveHourOffer  model.Money = 35000
)

// ClampHours bounds a requested duration to [MinHours, MaxHours].
func ClampHours(hours float64) float64 {
	switch {
	case hours < MinHours || math.IsNaN(hours):
		return MinHours
	case hours > MaxHours:
		return MaxHours
	default:
		return hours
	}
}

// HourlyPrice returns the base price of an hourly booking.
func HourlyPrice(hours float64) model.Money {
	h := ClampHours(hours)
	switch h {
	case 3:
		return threeHourOffer
	case 5:
		return fiveHourOffer
	default:
		return HourlyRate.MulFloat(h)
	}
}
