// Package slug builds URL path segments for products and categories.
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

var transliterations = map[rune]string{
	'ç': "c", 'ğ': "g", 'ı': "i", 'İ': "i", 'ö': "o", 'ş': "s", 'ü': "u",
	'ä': "a", 'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'å': "a",
	'é': "e", 'è': "e", 'ê': "e", 'ë': "e",
	'í': "i", 'ì': "i", 'î': "i", 'ï': "i",
	'ó': "o", 'ò': "o", 'ô': "o", 'õ': "o", 'ø': "o",
	'ú': "u", 'ù': "u", 'û': "u",
	'ñ': "n", 'ß': "ss", 'æ': "ae", 'œ': "oe",
}

// Generate lowercases name, transliterates common Latin letters to ASCII and
// joins the remaining alphanumeric runs with single hyphens.
//
//	"Kadın Giyim"      -> "kadin-giyim"
//	"Crème Brûlée!"    -> "creme-brulee"
func Generate(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingHyphen := false

	emit := func(s string) {
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteString(s)
	}

	for _, r := range name {
		if t, ok := transliterations[r]; ok {
			emit(t)
			continue
		}
		r = unicode.ToLower(r)
		if t, ok := transliterations[r]; ok {
			emit(t)
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			emit(string(r))
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// WithID appends the numeric id so slugs stay unique when names collide.
func WithID(name string, id int64) string {
	s := Generate(name)
	if s == "" {
		return strconv.FormatInt(id, 10)
	}
	return s + "-" + strconv.FormatInt(id, 10)
}
