package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// turkishASCII maps letters that do not decompose into an ASCII base and
// drops apostrophes so suffixes stay attached ("Almanya'ya" -> "almanyaya").
var turkishASCII = strings.NewReplacer(
	"ı", "i", "ğ", "g", "ş", "s", "ç", "c", "ö", "o", "ü", "u",
	"'", "", "’", "",
)

// Slugify turns a title into a lowercase, hyphen-separated ASCII slug.
// Turkish letters are transliterated ("Öğrenci Vizesi" -> "ogrenci-vizesi"),
// other accents are stripped and any remaining symbol becomes a separator.
func Slugify(title string) string {
	s := turkishASCII.Replace(cases.Lower(language.Turkish).String(title)) // Casers are not goroutine-safe
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = stripped
	}

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
