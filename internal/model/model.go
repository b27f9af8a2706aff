// Package model contains domain models for the chauffeur fare engine.
// Reference-data structs map to the PostgreSQL tables read by the pricing
// repository (zones, zone_locations, zone_prices, predefined_routes,
// time_based_fees, rates).
package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ─── Enums ──────────────────────────────────────────────────

type LocationType string

const (
	LocationCity       LocationType = "city"
	LocationPostalCode LocationType = "postal_code"
)

type PricingType string

const (
	PricingFixedRate     PricingType = "fixed_rate"
	PricingDistanceBased PricingType = "distance_based"
)

// UnknownZone is reported in a breakdown when an address resolves to no zone.
const UnknownZone = "UNKNOWN"

// ─── Location ───────────────────────────────────────────────

// Location represents a WGS-84 geographic point (EPSG:4326).
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// ─── Reference Data ─────────────────────────────────────────

// Zone maps to the `zones` table.
type Zone struct {
	ID          int64  `json:"id" yaml:"id"`
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Priority    int    `json:"priority" yaml:"priority"`
}

// ZoneLocation maps to the `zone_locations` table.
type ZoneLocation struct {
	ZoneCode string       `json:"zone_code" yaml:"zone"`
	Value    string       `json:"value" yaml:"value"`
	Type     LocationType `json:"type" yaml:"type"`
}

// ZoneFare maps to the `zone_prices` table. A distance-based entry prices
// BasePrice + km × PricePerKm; otherwise Price is used as a flat fare.
type ZoneFare struct {
	FromZone      string `json:"from_zone" yaml:"from"`
	ToZone        string `json:"to_zone" yaml:"to"`
	Price         Money  `json:"price" yaml:"price"`
	DistanceBased bool   `json:"distance_based" yaml:"distance_based"`
	BasePrice     Money  `json:"base_price" yaml:"base_price"`
	PricePerKm    Money  `json:"price_per_km" yaml:"price_per_km"`
}

// PredefinedRoute maps to the `predefined_routes` table.
type PredefinedRoute struct {
	ID        int64  `json:"id" yaml:"id"`
	Departure string `json:"departure" yaml:"departure"`
	Arrival   string `json:"arrival" yaml:"arrival"`
	Price     Money  `json:"price" yaml:"price"`
}

// TimeBasedFee maps to the `time_based_fees` table. Start and End are
// "HH:MM" in 24h format; Start > End means the window wraps midnight.
type TimeBasedFee struct {
	Name   string `json:"name" yaml:"name"`
	Start  string `json:"start_time" yaml:"start"`
	End    string `json:"end_time" yaml:"end"`
	Fee    Money  `json:"fee" yaml:"fee"`
	Active bool   `json:"is_active" yaml:"active"`
}

// RateConstants maps to the single row of the `rates` table. A configured
// record is used as given, zeros included; DefaultRateConstants applies only
// when no record exists. In YAML, keys left out of the record keep their
// default value.
type RateConstants struct {
	ExcessBaggageFee  Money `json:"excess_baggage_fee" yaml:"excess_baggage_fee"`
	StopFee           Money `json:"stop_fee" yaml:"stop_fee"`
	WeekendFee        Money `json:"weekend_fee" yaml:"weekend_fee"`
	HolidayFee        Money `json:"holiday_fee" yaml:"holiday_fee"`
	PricePerKm        Money `json:"price_per_km" yaml:"price_per_km"`
	BaseDistancePrice Money `json:"base_distance_price" yaml:"base_distance_price"`
}

// DefaultRateConstants returns the documented fallback rates.
func DefaultRateConstants() RateConstants {
	return RateConstants{
		ExcessBaggageFee:  1000, // €10.00 per extra bag
		StopFee:           1000, // €10.00
		WeekendFee:        1500, // €15.00
		HolidayFee:        1500, // €15.00
		PricePerKm:        250,  // €2.50
		BaseDistancePrice: 3000, // €30.00
	}
}

// UnmarshalYAML starts from DefaultRateConstants so omitted keys keep their
// defaults while an explicit 0 waives the fee.
func (r *RateConstants) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rates: line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if _, ok := rateKeys[node.Content[i].Value]; !ok {
			return fmt.Errorf("rates: line %d: field %s not found", node.Content[i].Line, node.Content[i].Value)
		}
	}

	type plain RateConstants
	v := plain(DefaultRateConstants())
	if err := node.Decode(&v); err != nil {
		return err
	}
	*r = RateConstants(v)
	return nil
}

var rateKeys = map[string]struct{}{
	"excess_baggage_fee":  {},
	"stop_fee":            {},
	"weekend_fee":         {},
	"holiday_fee":         {},
	"price_per_km":        {},
	"base_distance_price": {},
}

// ReferenceData is everything the engine reads. It is what a repository
// returns and what a pricing snapshot is built from.
type ReferenceData struct {
	Zones         []Zone            `json:"zones" yaml:"zones"`
	ZoneLocations []ZoneLocation    `json:"zone_locations" yaml:"zone_locations"`
	ZoneFares     []ZoneFare        `json:"zone_fares" yaml:"zone_fares"`
	Routes        []PredefinedRoute `json:"predefined_routes" yaml:"predefined_routes"`
	TimeBasedFees []TimeBasedFee    `json:"time_based_fees" yaml:"time_based_fees"`
	Rates         *RateConstants    `json:"rates,omitempty" yaml:"rates"`
}

// ─── Pricing Request / Result ───────────────────────────────

// PricingRequest is the engine input. Optional values are pointers.
type PricingRequest struct {
	DepartureAddress   string
	ArrivalAddress     string
	DistanceKm         *float64
	PickupTime         *time.Time
	Mode               Mode
	Hours              *float64
	StopCount          int
	ExcessBaggageCount int
	IsUrgent           bool
}

// PriceBreakdown is the itemized result of a pricing call.
type PriceBreakdown struct {
	QuoteID         string `json:"quote_id,omitempty"`
	SnapshotVersion uint64 `json:"snapshot_version,omitempty"`

	Mode                 Mode    `json:"mode"`
	BasePrice            Money   `json:"base_price"`
	TimeBasedFee         Money   `json:"time_based_fee"`
	TimeBasedFeeName     *string `json:"time_based_fee_name"`
	StopFee              Money   `json:"stop_fee"`
	ExcessBaggageCount   int     `json:"excess_baggage_count"`
	ExcessBaggageRate    Money   `json:"excess_baggage_rate"`
	ExcessBaggageFee     Money   `json:"excess_baggage_fee"`
	WeekendHolidayFee    Money   `json:"weekend_holiday_fee"`
	WeekendHolidayReason *string `json:"weekend_holiday_reason"`
	UrgentBookingFee     Money   `json:"urgent_booking_fee"`
	Total                Money   `json:"total"`

	// Classic mode.
	DepartureZone   string      `json:"departure_zone,omitempty"`
	ArrivalZone     string      `json:"arrival_zone,omitempty"`
	PricingType     PricingType `json:"pricing_type,omitempty"`
	PredefinedRoute bool        `json:"predefined_route,omitempty"`
	DistanceKm      float64     `json:"distance_km,omitempty"`

	// Hourly mode.
	Hours float64 `json:"hours,omitempty"`
}

// Sum returns the additive total of every fee component.
func (b *PriceBreakdown) Sum() Money {
	return b.BasePrice + b.TimeBasedFee + b.StopFee + b.WeekendHolidayFee + b.ExcessBaggageFee + b.UrgentBookingFee
}
