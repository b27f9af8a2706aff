package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shiva/chauffeur/internal/model"
)

// ─── Errors ─────────────────────────────────────────────────

var (
	// ErrInvalidInput is returned for missing or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid pricing input")

	// ErrInvalidServiceArea is returned when an hourly booking does not
	// depart from the Paris zone.
	ErrInvalidServiceArea = errors.New("hourly bookings are only available for pickups in Paris")

	// ErrSnapshotUnavailable is returned when no reference data has been loaded.
	ErrSnapshotUnavailable = errors.New("pricing reference data not loaded")
)

// MaxDistanceKm bounds a single transfer. Larger values are input errors.
const MaxDistanceKm = 5000

// ─── Engine Configuration ───────────────────────────────────

// Config holds the engine parameters that are not reference data.
type Config struct {
	// ParisZone is the zone code hourly bookings must depart from.
	ParisZone string

	// Location is the time zone surcharges are evaluated in. Nil keeps the
	// pickup time's own location.
	Location *time.Location

	// UrgentFee is charged when a request is flagged urgent.
	UrgentFee model.Money
}

// DefaultConfig returns the production engine parameters, minus Location
// which the caller loads (Europe/Paris).
func DefaultConfig() Config {
	return Config{
		ParisZone: "PARIS",
		UrgentFee: DefaultUrgentFee,
	}
}

// ─── Engine ─────────────────────────────────────────────────

// Engine composes the pricing components into a PriceBreakdown. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine; zero config fields fall back to DefaultConfig.
func NewEngine(cfg Config) *Engine {
	d := DefaultConfig()
	if cfg.ParisZone == "" {
		cfg.ParisZone = d.ParisZone
	}
	if cfg.UrgentFee == 0 {
		cfg.UrgentFee = d.UrgentFee
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Config() Config { return e.cfg }

// Validate checks a request before any pricing happens.
func Validate(req model.PricingRequest) error {
	switch {
	case !req.Mode.Valid():
		return fmt.Errorf("%w: mode must be classic or hourly", ErrInvalidInput)
	case strings.TrimSpace(req.DepartureAddress) == "":
		return fmt.Errorf("%w: departure address is required", ErrInvalidInput)
	case req.Mode == model.ModeClassic && strings.TrimSpace(req.ArrivalAddress) == "":
		return fmt.Errorf("%w: arrival address is required", ErrInvalidInput)
	case req.Mode == model.ModeHourly && (req.Hours == nil || math.IsNaN(*req.Hours)):
		return fmt.Errorf("%w: hours are required for hourly bookings", ErrInvalidInput)
	case req.StopCount != 0 && req.StopCount != 1:
		return fmt.Errorf("%w: stop count must be 0 or 1, got %d", ErrInvalidInput, req.StopCount)
	case req.ExcessBaggageCount < 0:
		return fmt.Errorf("%w: excess baggage count must be >= 0, got %d", ErrInvalidInput, req.ExcessBaggageCount)
	case req.DistanceKm != nil && !(*req.DistanceKm >= 0 && *req.DistanceKm <= MaxDistanceKm):
		return fmt.Errorf("%w: distance must be between 0 and %g km", ErrInvalidInput, float64(MaxDistanceKm))
	}
	return nil
}

// Compute prices a request against a snapshot.
//
// Flow:
//  1. Validate the request.
//  2. Base price: hourly tier (Paris pickups only), else predefined route,
//     else zone fare table, else distance pricing.
//  3. Stop fee (classic only).
//  4. Time-of-day, weekend/holiday, excess baggage and urgent fees, all
//     zero when the request has no pickup time.
//  5. Total is the exact sum of every component.
func (e *Engine) Compute(snap *Snapshot, req model.PricingRequest) (*model.PriceBreakdown, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrSnapshotUnavailable
	}

	rates := snap.Rates()
	b := &model.PriceBreakdown{
		Mode:            req.Mode,
		SnapshotVersion: snap.Version(),
	}

	// ── Step 1: Base price ──────────────────────────────
	switch req.Mode {
	case model.ModeHourly:
		zone, ok := snap.ResolveZone(req.DepartureAddress)
		if !ok || zone.Code != e.cfg.ParisZone {
			return nil, fmt.Errorf("%w: departure %q resolved to %s",
				ErrInvalidServiceArea, req.DepartureAddress, zoneCode(zone, ok))
		}
		b.DepartureZone = zone.Code
		b.Hours = ClampHours(*req.Hours)
		b.BasePrice = HourlyPrice(*req.Hours)

	case model.ModeClassic:
		var distanceKm float64
		if req.DistanceKm != nil {
			distanceKm = *req.DistanceKm
		}
		b.DistanceKm = distanceKm

		depZone, depOK := snap.ResolveZone(req.DepartureAddress)
		arrZone, arrOK := snap.ResolveZone(req.ArrivalAddress)
		b.DepartureZone = zoneCode(depZone, depOK)
		b.ArrivalZone = zoneCode(arrZone, arrOK)

		if route, ok := snap.MatchRoute(req.DepartureAddress, req.ArrivalAddress); ok {
			b.BasePrice = route.Price
			b.PricingType = model.PricingFixedRate
			b.PredefinedRoute = true
		} else {
			var from, to string
			if depOK {
				from = depZone.Code
			}
			if arrOK {
				to = arrZone.Code
			}
			b.BasePrice, b.PricingType = snap.PriceForZones(from, to, distanceKm)
		}

		b.StopFee = StopFee(rates, req.Mode, req.StopCount)
	}

	// ── Step 2: Surcharges and option fees ──────────────
	// Stop fee aside, every surcharge needs a pickup time.
	b.ExcessBaggageCount = req.ExcessBaggageCount
	b.ExcessBaggageRate = rates.ExcessBaggageFee
	if req.PickupTime != nil {
		t := *req.PickupTime
		if e.cfg.Location != nil {
			t = t.In(e.cfg.Location)
		}

		if fee, name, ok := snap.TimeBasedFee(t); ok {
			b.TimeBasedFee = fee
			b.TimeBasedFeeName = &name
		}
		if fee, reason := WeekendHolidayFee(rates, t); reason != "" {
			b.WeekendHolidayFee = fee
			b.WeekendHolidayReason = &reason
		}

		b.ExcessBaggageFee = ExcessBaggageFee(rates, req.ExcessBaggageCount)
		b.UrgentBookingFee = UrgentFee(e.cfg.UrgentFee, req.IsUrgent)
	}

	b.Total = b.Sum()
	return b, nil
}

// IsUrgent reports whether a pickup is strictly in the future and closer
// than window to now.
func IsUrgent(pickup, now time.Time, window time.Duration) bool {
	until := pickup.Sub(now)
	return until > 0 && until < window
}
