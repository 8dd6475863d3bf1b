package receptradar

import (
	"sort"
	"strings"

	"github.com/hyperengineering/receptradar/internal/normalize"
)

// keySeparator joins normalized names in an ingredient cache key.
const keySeparator = "|"

// BuildIngredientKey derives the cache key for an unordered ingredient set.
//
// Each name is normalized, empty results are dropped, and the remainder is
// sorted by byte order, deduplicated and joined with "|". Two lists with the
// same normalized membership produce the same key regardless of order or
// repetition. No names (or only noise) yields "", which is never used as a
// cache hit.
func BuildIngredientKey(names []string) string {
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if k := normalize.Key(name); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)
	uniq := keys[:1]
	for _, k := range keys[1:] {
		if k != uniq[len(uniq)-1] {
			uniq = append(uniq, k)
		}
	}
	return strings.Join(uniq, keySeparator)
}
