package pricing

import (
	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/pkg/address"
)

// MatchRoute returns the first predefined route (stored order) whose
// departure and arrival both designate the same places as the query.
func (s *Snapshot) MatchRoute(departure, arrival string) (model.PredefinedRoute, bool) {
	dep := address.Normalize(departure)
	arr := address.Normalize(arrival)
	return s.matchNormalized(dep, arr)
}

func (s *Snapshot) matchNormalized(dep, arr string) (model.PredefinedRoute, bool) {
	if len(s.routes) == 0 {
		return model.PredefinedRoute{}, false
	}

	depKw := address.ExtractKeywords(dep)
	arrKw := address.ExtractKeywords(arr)

	for _, r := range s.routes {
		if !address.SameSide(dep, depKw, r.dep, r.depKw) {
			continue
		}
		if !address.SameSide(arr, arrKw, r.arr, r.arrKw) {
			continue
		}
		return r.route, true
	}
	return model.PredefinedRoute{}, false
}
