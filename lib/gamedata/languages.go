package gamedata

import (
	"fmt"
	"slices"
	"strings"

	"akiclient/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Languages maps full language names to the region code the service
// hosts that language under.
var Languages = map[string]string{
	"english":    "en",
	"arabic":     "ar",
	"chinese":    "cn",
	"german":     "de",
	"spanish":    "es",
	"french":     "fr",
	"hebrew":     "il",
	"italian":    "it",
	"japanese":   "jp",
	"korean":     "kr",
	"dutch":      "nl",
	"polish":     "pl",
	"portuguese": "pt",
	"russian":    "ru",
	"turkish":    "tr",
	"indonesian": "id",
}

// InvalidLanguageError is returned when a language is neither a known
// region code nor a known language name.
type InvalidLanguageError struct {
	Language string
	// Suggestion is the closest known language name, it may be empty.
	Suggestion string
}

func (e *InvalidLanguageError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("invalid language %q (did you mean %q?)", e.Language, e.Suggestion)
	}
	return fmt.Sprintf("invalid language %q", e.Language)
}

// ResolveLanguage accepts either a two letter region code ("fr") or a full
// language name ("French") and returns the region code.
func ResolveLanguage(language string) (string, error) {
	normalized := textutil.NormalizeName(language)
	if len(normalized) <= 2 {
		for _, code := range Languages {
			if code == normalized {
				return code, nil
			}
		}
		return "", &InvalidLanguageError{Language: language}
	}

	code, ok := Languages[normalized]
	if !ok {
		return "", &InvalidLanguageError{
			Language:   language,
			Suggestion: SuggestLanguage(normalized),
		}
	}
	return code, nil
}

// minSuggestionSimilarity is the Jaro-Winkler score under which a name is
// considered unrelated to every known language.
const minSuggestionSimilarity = 0.8

// SuggestLanguage returns the known language name most similar to the
// input or an empty string when nothing is close enough.
func SuggestLanguage(input string) string {
	input = textutil.NormalizeName(input)

	var best string
	var bestScore float64
	for _, name := range LanguageNames() {
		score := matchr.JaroWinkler(input, name, false)
		if score > bestScore {
			best = name
			bestScore = score
		}
	}
	if bestScore < minSuggestionSimilarity {
		return ""
	}
	return best
}

// LanguageNames lists every known language name in alphabetical order.
func LanguageNames() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LanguageName is the reverse lookup of Languages.
func LanguageName(code string) string {
	for name, c := range Languages {
		if c == code {
			return strings.ToUpper(name[:1]) + name[1:]
		}
	}
	return ""
}
