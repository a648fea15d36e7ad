// Package geocheck decides whether a geocoder candidate matches the address
// it was submitted for.
package geocheck

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// turkishI folds the two capital I letters before generic lowercasing, which
// would otherwise turn İ into "i̇" and I into "i".
var turkishI = strings.NewReplacer("İ", "i", "I", "ı")

// FoldTurkish returns the Turkish lowercase form of s.
func FoldTurkish(s string) string {
	s = norm.NFC.String(s)
	s = turkishI.Replace(s)
	return cases.Lower(language.Turkish).String(s)
}

// NormalizeField folds an optional text field. A nil field is unavailable and
// reports false.
func NormalizeField(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return FoldTurkish(*v), true
}
