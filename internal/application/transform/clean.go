package transform

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Límites de longitud tras la limpieza (en runas).
const (
	maxNameLen        = 100
	maxTitleLen       = 200
	maxShortLen       = 64
	maxDescriptionLen = 1000
	maxInsightsLen    = 2000
)

// stripPolicy elimina todo el markup; bluemonday es seguro para uso concurrente.
var stripPolicy = bluemonday.StrictPolicy()

var lower = cases.Lower(language.Spanish)

// cleanText quita HTML, normaliza a NFC, elimina caracteres de control,
// colapsa espacios y recorta a max runas.
func cleanText(s string, max int) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, max)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return strings.TrimSpace(string(rs[:max]))
}

// slugify "Mi Organización S.A." -> "mi-organizacion-s-a".
func slugify(s string) string {
	t := xtransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := xtransform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = lower.String(plain)
	var b strings.Builder
	dash := false
	for _, r := range plain {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return truncate(strings.TrimSuffix(b.String(), "-"), maxShortLen)
}

func runeLen(s string) int { return len([]rune(s)) }
