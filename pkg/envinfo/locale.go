package envinfo

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is a POSIX locale split into its language and encoding parts,
// e.g. "en_US.UTF-8" becomes {Language: "en_US", Encoding: "UTF-8"}.
type Locale struct {
	Language string
	Encoding string
}

// ParseLocale parses a POSIX locale name. The C and POSIX locales parse to
// the zero Locale, meaning no specific locale is set.
func ParseLocale(s string) Locale {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	lang, enc, _ := strings.Cut(s, ".")
	switch lang {
	case "", "C", "POSIX":
		return Locale{}
	}
	return Locale{Language: lang, Encoding: enc}
}

// LocaleFromEnv resolves the character-type locale the way libc does:
// LC_ALL, then LC_CTYPE, then LANG.
func LocaleFromEnv(getenv func(string) string) Locale {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := getenv(key); v != "" {
			return ParseLocale(v)
		}
	}
	return Locale{}
}

// ProcessLocale reads the locale of the current process environment.
func ProcessLocale() Locale {
	return LocaleFromEnv(os.Getenv)
}

// IsSet reports whether a specific locale is configured.
func (l Locale) IsSet() bool {
	return l.Language != ""
}

// IsUS reports whether the locale language is exactly en_US.
func (l Locale) IsUS() bool {
	return l.Language == "en_US"
}

// Tag converts the locale language to a BCP 47 tag.
func (l Locale) Tag() (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(l.Language, "_", "-"))
}

// DisplayName returns an English name for the locale, falling back to the
// raw language when it is not a recognised tag.
func (l Locale) DisplayName() string {
	if !l.IsSet() {
		return "none"
	}
	tag, err := l.Tag()
	if err != nil {
		return l.Language
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return l.Language
}

func (l Locale) String() string {
	if l.Encoding == "" {
		return l.Language
	}
	return l.Language + "." + l.Encoding
}
