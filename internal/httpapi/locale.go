package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"golang.org/x/text/language"
)

// AcceptLanguage stores the preferred language of the Accept-Language header
// as the request-scoped locale. Only the base language is kept, so "ja-JP"
// selects "ja" data. Unparseable headers are ignored.
func AcceptLanguage() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if locale, ok := PreferredLocale(c.Request().Header.Get("Accept-Language")); ok {
				req := c.Request()
				c.SetRequest(req.WithContext(codes.WithLocale(req.Context(), locale)))
			}
			return next(c)
		}
	}
}

// PreferredLocale returns the base language of the highest weighted tag.
func PreferredLocale(header string) (language.Tag, bool) {
	if header == "" {
		return language.Und, false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return language.Und, false
	}
	for _, tag := range tags {
		base, confidence := tag.Base()
		if tag == language.Und || confidence == language.No {
			continue
		}
		return language.Make(base.String()), true
	}
	return language.Und, false
}
