package i18n

import (
	"net/http"
)

// LangParam overrides Accept-Language, e.g. for download links opened by the browser
const LangParam = "lang"

// Middleware stores the request locale in the context
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale, ok := match(r.URL.Query().Get(LangParam))
		if !ok {
			locale = ParseAcceptLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(WithLocale(r.Context(), locale)))
	})
}
