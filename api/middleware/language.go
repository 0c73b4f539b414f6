package middleware

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// supported lists the display languages in matcher order. The first entry is the fallback.
var supported = []enums.Language{enums.LanguageArabic, enums.LanguageEnglish}

func newMatcher(fallback enums.Language) (language.Matcher, []enums.Language) {
	ordered := []enums.Language{fallback}
	for _, lang := range supported {
		if lang != fallback {
			ordered = append(ordered, lang)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, lang := range ordered {
		tags = append(tags, language.Make(string(lang)))
	}
	return language.NewMatcher(tags), ordered
}

// Language picks the display language from Accept-Language, then the token claim, then fallback.
func Language(fallback enums.Language, logg *logger.Logger) func(http.Handler) http.Handler {
	if !fallback.IsValid() {
		fallback = enums.LanguageArabic
	}
	matcher, ordered := newMatcher(fallback)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			lang := fallback
			if header := r.Header.Get("Accept-Language"); header != "" {
				tags, _, err := language.ParseAcceptLanguage(header)
				if err == nil && len(tags) > 0 {
					_, idx, confidence := matcher.Match(tags...)
					if confidence != language.No {
						lang = ordered[idx]
					}
				}
			} else if claimed := claimLanguage(ctx); claimed != "" {
				lang = claimed
			}

			ctx = WithLanguage(ctx, lang)
			if logg != nil {
				ctx = logg.WithField(ctx, "lang", string(lang))
			}
			w.Header().Set("Content-Language", string(lang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
