// Package address canonicalizes free-text French addresses so they can be
// compared by substring and keyword overlap.
//
// All functions are pure and safe for concurrent use; the regular
// expressions are compiled once at package init.
package address

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// "PARIS-" and "PARIS " are dropped as raw substrings, not words.
	parisPrefixes = []string{"PARIS-", "PARIS "}

	stopWordPattern   = regexp.MustCompile(`\b(?:DE|LE|LA|LES)\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize returns the canonical form of an address: upper case, accents
// transliterated (É→E, Ç→C, ...), French stop-words removed, whitespace
// collapsed and trimmed.
//
//	Normalize("Gare de Lyon, 75012 Paris") == "GARE LYON, 75012 PARIS"
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToUpper(unidecode.Unidecode(s))
	for _, p := range parisPrefixes {
		s = strings.ReplaceAll(s, p, "")
	}
	s = stopWordPattern.ReplaceAllString(s, " ")
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// Contains reports whether the normalized address contains the normalized
// needle. An empty needle never matches.
func Contains(normalizedAddr, normalizedNeedle string) bool {
	return normalizedNeedle != "" && strings.Contains(normalizedAddr, normalizedNeedle)
}
