package pricing

import "github.com/shiva/chauffeur/internal/model"

// DistanceBasedPrice is the generic fare used when no zone fare applies:
// BaseDistancePrice + km × PricePerKm (30.00 + 2.50/km by default).
func (s *Snapshot) DistanceBasedPrice(distanceKm float64) model.Money {
	return s.rates.BaseDistancePrice + s.rates.PricePerKm.MulFloat(distanceKm)
}

// PriceForZones looks up the fare between two zone codes. An empty code
// means the address did not resolve. Lookup order: exact pair, reversed
// pair, then distance pricing.
func (s *Snapshot) PriceForZones(from, to string, distanceKm float64) (model.Money, model.PricingType) {
	if from == "" || to == "" {
		return s.DistanceBasedPrice(distanceKm), model.PricingDistanceBased
	}

	f, ok := s.fares[farePair{from, to}]
	if !ok {
		f, ok = s.fares[farePair{to, from}]
	}
	if !ok {
		return s.DistanceBasedPrice(distanceKm), model.PricingDistanceBased
	}

	if f.DistanceBased {
		return f.BasePrice + f.PricePerKm.MulFloat(distanceKm), model.PricingDistanceBased
	}
	return f.Price, model.PricingFixedRate
}
