// Package country maps free-text country input to a canonical country name.
package country

import "strings"

type alias struct {
	key       string
	canonical string
}

// aliases is the ordered lookup table. Order matters: partial matching
// returns the first entry that matches, so the slice is the tie-break.
var aliases = []alias{
	{"united states", "United States"},
	{"usa", "United States"},
	{"u.s.a", "United States"},
	{"us", "United States"},
	{"u.s", "United States"},

	{"united kingdom", "United Kingdom"},
	{"uk", "United Kingdom"},
	{"u.k", "United Kingdom"},
	{"great britain", "United Kingdom"},
	{"england", "United Kingdom"},

	{"uae", "United Arab Emirates"},
	{"u.a.e", "United Arab Emirates"},
	{"united arab emirates", "United Arab Emirates"},

	{"india", "India"},
	{"canada", "Canada"},
	{"australia", "Australia"},
	{"germany", "Germany"},
	{"france", "France"},
	{"italy", "Italy"},
	{"spain", "Spain"},
	{"brazil", "Brazil"},
}

var exact = make(map[string]string, len(aliases))

func init() {
	for _, a := range aliases {
		exact[a.key] = a.canonical
	}
}

// Normalize resolves input to a canonical country name. Exact alias matches
// win; otherwise the first table entry that contains the input, or is
// contained in it, decides. Unknown countries pass through trimmed with
// their original casing.
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	s := strings.ToLower(trimmed)

	if canonical, ok := exact[s]; ok {
		return canonical
	}
	if s != "" {
		for _, a := range aliases {
			if strings.Contains(a.key, s) || strings.Contains(s, a.key) {
				return a.canonical
			}
		}
	}
	return trimmed
}
