package address

import (
	"regexp"
	"strings"
)

// MatchThreshold is the minimum share of keywords that must overlap for two
// keyword sets to be considered the same place.
const MatchThreshold = 0.5

var (
	airportPattern    = regexp.MustCompile(`AEROPORT\s*(.*?)(?:,|\d+|$)`)
	localityPattern   = regexp.MustCompile(`^[^,]*,([^\d]*)`)
	postalCodePattern = regexp.MustCompile(`\d{5}`)
	connectorPattern  = regexp.MustCompile(`\b(?:DE|DU|LA|LE|LES|PARIS)\b`)
)

// Keywords is the set of place markers extracted from one address.
type Keywords []string

// ExtractKeywords pulls the airport name, the locality after the first comma
// and the postal code (first run of five digits) out of an already
// normalized address.
//
//	ExtractKeywords("AEROPORT CHARLES GAULLE, 95700 ROISSY") == {"CHARLES GAULLE", "95700"}
func ExtractKeywords(normalized string) Keywords {
	var kw Keywords

	if m := airportPattern.FindStringSubmatch(normalized); m != nil {
		if name := stripConnectors(m[1]); name != "" {
			kw = kw.add(name)
		}
	}

	if m := localityPattern.FindStringSubmatch(normalized); m != nil {
		if loc := stripConnectors(m[1]); len(loc) > 3 {
			kw = kw.add(loc)
		}
	}

	if pc := postalCodePattern.FindString(normalized); pc != "" {
		kw = kw.add(pc)
	}

	return kw
}

func stripConnectors(s string) string {
	return collapse(connectorPattern.ReplaceAllString(s, " "))
}

func (k Keywords) add(v string) Keywords {
	for _, existing := range k {
		if existing == v {
			return k
		}
	}
	return append(k, v)
}

// KeywordsMatch reports whether at least MatchThreshold of the larger set is
// covered. A keyword of a counts as matched when it is a substring of, or
// contains, any keyword of b. Empty sets never match.
func KeywordsMatch(a, b Keywords) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}

	matched := 0
	for _, ka := range a {
		for _, kb := range b {
			if strings.Contains(ka, kb) || strings.Contains(kb, ka) {
				matched++
				break
			}
		}
	}

	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(matched)/float64(denom) >= MatchThreshold
}

// SameSide reports whether two addresses designate the same endpoint:
// either their keyword sets match or one normalized string contains the
// other. The containment check covers short inputs like "Orly".
func SameSide(normA string, kwA Keywords, normB string, kwB Keywords) bool {
	if KeywordsMatch(kwA, kwB) {
		return true
	}
	if normA == "" || normB == "" {
		return false
	}
	return strings.Contains(normA, normB) || strings.Contains(normB, normA)
}
