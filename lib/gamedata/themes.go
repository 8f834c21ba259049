package gamedata

import "fmt"

// Theme selects the category of things the service tries to guess.
type Theme string

const (
	ThemeCharacters Theme = "c"
	ThemeAnimals    Theme = "a"
	ThemeObjects    Theme = "o"
)

// ID is the numeric theme id the service expects in the "sid" field.
func (t Theme) ID() int {
	return themeIds[t]
}

func (t Theme) String() string {
	switch t {
	case ThemeCharacters:
		return "characters"
	case ThemeAnimals:
		return "animals"
	case ThemeObjects:
		return "objects"
	}
	return string(t)
}

var themeIds = map[Theme]int{
	ThemeCharacters: 1,
	ThemeAnimals:    14,
	ThemeObjects:    2,
}

// RegionThemes lists the themes each region offers, the first one is the
// default.
var RegionThemes = map[string][]Theme{
	"en": {ThemeCharacters, ThemeAnimals, ThemeObjects},
	"ar": {ThemeCharacters},
	"cn": {ThemeCharacters},
	"de": {ThemeCharacters, ThemeAnimals},
	"es": {ThemeCharacters, ThemeAnimals},
	"fr": {ThemeCharacters, ThemeAnimals, ThemeObjects},
	"il": {ThemeCharacters},
	"it": {ThemeCharacters, ThemeAnimals},
	"jp": {ThemeCharacters, ThemeAnimals},
	"kr": {ThemeCharacters},
	"nl": {ThemeCharacters},
	"pl": {ThemeCharacters},
	"pt": {ThemeCharacters},
	"ru": {ThemeCharacters},
	"tr": {ThemeCharacters},
	"id": {ThemeCharacters},
}

// DefaultTheme returns the first theme available for a region.
func DefaultTheme(code string) (Theme, error) {
	themes := RegionThemes[code]
	if len(themes) == 0 {
		return "", &InvalidLanguageError{Language: code}
	}
	return themes[0], nil
}

// ParseTheme accepts a theme letter or its long name.
func ParseTheme(s string) (Theme, error) {
	for theme := range themeIds {
		if s == string(theme) || s == theme.String() {
			return theme, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}
