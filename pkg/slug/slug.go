package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from a game title. Accented Latin
// characters common in game names are transliterated to ASCII.
//
// Examples:
//   - "The Witcher 3: Wild Hunt" → "the-witcher-3-wild-hunt"
//   - "Pokémon Café" → "pokemon-cafe"
//   - "  Hollow   Knight!  " → "hollow-knight"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))

	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n", "ß", "ss",
		"&", " and ",
	)
	s = replacer.Replace(s)

	s = slugRegexp.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}

	return s
}
