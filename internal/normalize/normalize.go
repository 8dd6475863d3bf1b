// Package normalize canonicalizes free-text ingredient and product names
// into a form that can be compared for equality.
//
// A normalized name is NFC-composed, lower-cased without regard to locale,
// stripped of punctuation and of quantity/unit noise ("2 dl", "500g", "3%"),
// and has its remaining words joined by single spaces. Normalization is
// idempotent: Key(Key(x)) == Key(x).
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Result is the outcome of normalizing a single name.
type Result struct {
	// NormalizedName is empty when the input carried no usable words.
	// An empty name is unmatchable and never equals another empty name.
	NormalizedName string
}

// Matchable reports whether the result can take part in comparisons.
func (r Result) Matchable() bool {
	return r.NormalizedName != ""
}

// units are measure words dropped when they directly follow a quantity,
// and recognised as suffixes of glued quantities such as "500g".
var units = map[string]bool{
	// metric
	"g": true, "gr": true, "gram": true, "hg": true, "kg": true, "kilo": true,
	"ml": true, "cl": true, "dl": true, "l": true, "liter": true, "litre": true,
	// swedish kitchen measures and counts
	"msk": true, "tsk": true, "krm": true, "st": true, "styck": true,
	"pkt": true, "paket": true, "förp": true, "burk": true, "burkar": true,
	"klyfta": true, "klyftor": true, "knippe": true, "nypa": true,
	// english
	"tbsp": true, "tsp": true, "cup": true, "cups": true, "oz": true, "lb": true,
	"lbs": true, "pcs": true, "pc": true, "pinch": true, "can": true, "cans": true,
}

// approximations are dropped when they directly precede a quantity ("ca 2 dl").
var approximations = map[string]bool{
	"ca": true, "cirka": true, "ungefär": true, "about": true, "approx": true,
}

// Name normalizes raw into a Result.
func Name(raw string) Result {
	s := norm.NFC.String(raw)
	// Casers carry state and must not be shared between goroutines.
	s = cases.Lower(language.Und).String(s)

	tokens := strings.FieldsFunc(s, isSeparator)

	kept := make([]string, 0, len(tokens))
	afterQuantity := false
	for i, tok := range tokens {
		switch {
		case isQuantity(tok):
			afterQuantity = true
			continue
		case afterQuantity && units[tok]:
			afterQuantity = false
			continue
		case approximations[tok] && i+1 < len(tokens) && isQuantity(tokens[i+1]):
			continue
		}
		afterQuantity = false
		kept = append(kept, tok)
	}

	return Result{NormalizedName: strings.Join(kept, " ")}
}

// Key is shorthand for Name(raw).NormalizedName.
func Key(raw string) string {
	return Name(raw).NormalizedName
}

// isSeparator treats everything except letters, numbers and combining marks
// as a word boundary, which removes punctuation and symbols.
func isSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r))
}

// isQuantity reports whether tok is a bare amount ("2", "½") or an amount
// glued to a unit ("500g", "2dl").
func isQuantity(tok string) bool {
	digits := 0
	for _, r := range tok {
		if !unicode.IsNumber(r) {
			break
		}
		digits += utf8.RuneLen(r)
	}
	if digits == 0 {
		return false
	}
	if digits == len(tok) {
		return true
	}
	return units[tok[digits:]]
}
