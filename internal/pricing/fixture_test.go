package pricing

import (
	"fmt"
	"testing"
	"time"

	"github.com/shiva/chauffeur/internal/model"
)

// testReferenceData is a small Île-de-France setup:
//
//	CDG       (prio 20)  Roissy airport
//	PARIS     (prio 10)  75001–75020 + "Paris"
//	PREMIUM   (prio 5)   Neuilly, Boulogne, Vincennes
//	BANLIEUE  (prio 1)   Nanterre, Créteil
func testReferenceData() *model.ReferenceData {
	data := &model.ReferenceData{
		Zones: []model.Zone{
			{ID: 1, Code: "PARIS", Name: "Paris", Priority: 10},
			{ID: 2, Code: "PREMIUM", Name: "Premium Banlieue", Priority: 5},
			{ID: 3, Code: "BANLIEUE", Name: "Banlieue", Priority: 1},
			{ID: 4, Code: "CDG", Name: "Aéroport CDG", Priority: 20},
		},
		ZoneFares: []model.ZoneFare{
			{FromZone: "PARIS", ToZone: "PREMIUM", Price: 4500},
			{FromZone: "PARIS", ToZone: "CDG", Price: 6500},
			{FromZone: "BANLIEUE", ToZone: "PARIS", DistanceBased: true, BasePrice: 2000, PricePerKm: 200},
		},
		Routes: []model.PredefinedRoute{
			{ID: 1, Departure: "Gare de Lyon, 75012 Paris", Arrival: "Vincennes, 94300", Price: 5500},
			{ID: 2, Departure: "Aéroport Charles de Gaulle, 95700 Roissy", Arrival: "Gare du Nord, 75010 Paris", Price: 7000},
		},
		TimeBasedFees: []model.TimeBasedFee{
			{Name: "Nuit", Start: "22:00", End: "05:00", Fee: 1000, Active: true},
			{Name: "Déjeuner", Start: "12:00", End: "15:00", Fee: 9900, Active: false},
			{Name: "Pointe matin", Start: "07:00", End: "09:30", Fee: 500, Active: true},
		},
	}
	for i := 1; i <= 20; i++ {
		data.ZoneLocations = append(data.ZoneLocations, model.ZoneLocation{
			ZoneCode: "PARIS", Value: fmt.Sprintf("750%02d", i), Type: model.LocationPostalCode,
		})
	}
	data.ZoneLocations = append(data.ZoneLocations,
		model.ZoneLocation{ZoneCode: "PARIS", Value: "Paris", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "PREMIUM", Value: "Neuilly-sur-Seine", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "PREMIUM", Value: "Boulogne-Billancourt", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "PREMIUM", Value: "Vincennes", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "PREMIUM", Value: "94300", Type: model.LocationPostalCode},
		model.ZoneLocation{ZoneCode: "BANLIEUE", Value: "Nanterre", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "BANLIEUE", Value: "92000", Type: model.LocationPostalCode},
		model.ZoneLocation{ZoneCode: "BANLIEUE", Value: "Créteil", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "CDG", Value: "Charles de Gaulle", Type: model.LocationCity},
		model.ZoneLocation{ZoneCode: "CDG", Value: "95700", Type: model.LocationPostalCode},
		model.ZoneLocation{ZoneCode: "GHOST", Value: "Atlantis", Type: model.LocationCity},
	)
	return data
}

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(testReferenceData(), 1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewSnapshot() error = %v", err)
	}
	return snap
}

func ptr[T any](v T) *T { return &v }

// at builds a wall-clock time in UTC; the engine under test has no Location.
func at(y int, m time.Month, d, hh, mm int) *time.Time {
	return ptr(time.Date(y, m, d, hh, mm, 0, 0, time.UTC))
}
