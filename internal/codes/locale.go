package codes

import (
	"context"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// FallbackLocale is used when the host environment names no usable language.
var FallbackLocale = language.English

// localeEnvVars are consulted in POSIX precedence order.
var localeEnvVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

type localeKey struct{}

// WithLocale returns a context carrying the caller-scoped locale.
func WithLocale(ctx context.Context, locale language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// LocaleFrom returns the caller-scoped locale, if one is set.
func LocaleFrom(ctx context.Context) (language.Tag, bool) {
	locale, ok := ctx.Value(localeKey{}).(language.Tag)
	if !ok || locale == language.Und {
		return language.Und, false
	}
	return locale, true
}

// ParseLocale parses a BCP 47 tag. POSIX spellings such as "ja_JP" are accepted.
func ParseLocale(s string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
}

// HostLocale derives the default locale from the host environment: the base
// language of the first usable LC_ALL, LC_MESSAGES or LANG value, without
// region. It falls back to FallbackLocale.
func HostLocale() language.Tag {
	return hostLocale(os.Getenv)
}

func hostLocale(getenv func(string) string) language.Tag {
	for _, name := range localeEnvVars {
		value := getenv(name)
		// Strip ".UTF-8" and "@euro" style suffixes
		if i := strings.IndexAny(value, ".@"); i >= 0 {
			value = value[:i]
		}
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		tag, err := ParseLocale(value)
		if err != nil {
			continue
		}
		base, confidence := tag.Base()
		if confidence == language.No {
			continue
		}
		return language.Make(base.String())
	}
	return FallbackLocale
}
