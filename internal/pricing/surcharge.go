package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/pkg/holiday"
)

// Surcharge reasons reported in a breakdown.
const (
	ReasonWeekend = "Weekend"
	ReasonHoliday = "French Holiday"
)

// DefaultUrgentFee is charged when the pickup is less than an hour away.
const DefaultUrgentFee model.Money = 1500

// ─── Time-based fee windows ─────────────────────────────────

// FeeWindow is a parsed TimeBasedFee. StartMin is inclusive, EndMin
// exclusive, both in minutes since midnight. StartMin > EndMin wraps
// past midnight.
type FeeWindow struct {
	Name     string
	StartMin int
	EndMin   int
	Fee      model.Money
}

// ParseFeeWindow parses "HH:MM" (or "HH:MM:SS") bounds.
func ParseFeeWindow(f model.TimeBasedFee) (FeeWindow, error) {
	start, err := parseClock(f.Start)
	if err != nil {
		return FeeWindow{}, fmt.Errorf("fee window %q start: %w", f.Name, err)
	}
	end, err := parseClock(f.End)
	if err != nil {
		return FeeWindow{}, fmt.Errorf("fee window %q end: %w", f.Name, err)
	}
	return FeeWindow{Name: f.Name, StartMin: start, EndMin: end, Fee: f.Fee}, nil
}

func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	p := strings.Split(s, ":")
	if len(p) != 2 && len(p) != 3 {
		return 0, fmt.Errorf("clock: bad %q", s)
	}
	h, err := strconv.Atoi(p[0])
	if err != nil {
		return 0, fmt.Errorf("clock: bad %q", s)
	}
	m, err := strconv.Atoi(p[1])
	if err != nil {
		return 0, fmt.Errorf("clock: bad %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock: out of range %q", s)
	}
	return h*60 + m, nil
}

// Contains reports whether minute-of-day m falls inside the window.
func (w FeeWindow) Contains(m int) bool {
	if w.StartMin <= w.EndMin {
		return m >= w.StartMin && m < w.EndMin
	}
	return m >= w.StartMin || m < w.EndMin
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// TimeBasedFee returns the first active window containing t's time of day.
func (s *Snapshot) TimeBasedFee(t time.Time) (model.Money, string, bool) {
	m := minuteOfDay(t)
	for _, w := range s.windows {
		if w.Contains(m) {
			return w.Fee, w.Name, true
		}
	}
	return 0, "", false
}

// ─── Calendar fees ──────────────────────────────────────────

// WeekendHolidayFee applies the weekend fee on Saturdays and Sundays, else
// the holiday fee on French public holidays. A holiday falling on a weekend
// only gets the weekend fee.
func WeekendHolidayFee(rates model.RateConstants, t time.Time) (model.Money, string) {
	if holiday.IsWeekend(t) {
		return rates.WeekendFee, ReasonWeekend
	}
	if holiday.IsFrenchHoliday(t) {
		return rates.HolidayFee, ReasonHoliday
	}
	return 0, ""
}

// ─── Option fees ────────────────────────────────────────────

// StopFee applies to classic bookings with exactly one intermediate stop.
func StopFee(rates model.RateConstants, mode model.Mode, stopCount int) model.Money {
	if mode != model.ModeClassic || stopCount != 1 {
		return 0
	}
	return rates.StopFee
}

// ExcessBaggageFee charges each bag beyond the included allowance.
func ExcessBaggageFee(rates model.RateConstants, count int) model.Money {
	if count <= 0 {
		return 0
	}
	return rates.ExcessBaggageFee * model.Money(count)
}

// UrgentFee is the flat fee for a booking flagged urgent.
func UrgentFee(fee model.Money, isUrgent bool) model.Money {
	if !isUrgent {
		return 0
	}
	return fee
}
