package pricing

import (
	"github.com/shiva/chauffeur/internal/model"
	"github.com/shiva/chauffeur/pkg/address"
)

// ResolveZone classifies an address. Zones are scanned by descending
// priority and the first one owning a location contained in the normalized
// address wins. Returns false when no zone matches.
func (s *Snapshot) ResolveZone(addr string) (model.Zone, bool) {
	return s.resolveNormalized(address.Normalize(addr))
}

func (s *Snapshot) resolveNormalized(norm string) (model.Zone, bool) {
	if norm == "" {
		return model.Zone{}, false
	}
	for _, ze := range s.zones {
		for _, loc := range ze.locations {
			if address.Contains(norm, loc) {
				return ze.zone, true
			}
		}
	}
	return model.Zone{}, false
}

func zoneCode(z model.Zone, ok bool) string {
	if !ok {
		return model.UnknownZone
	}
	return z.Code
}
