package i18n

import "net/http"

// Middleware injects a localizer into every request context. The ?lang query
// parameter wins over Accept-Language; defaultLang covers everything else.
func Middleware(defaultLang string) func(http.Handler) http.Handler {
	fallback := NewLocalizer(defaultLang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := fallback
			query := r.URL.Query().Get("lang")
			accept := r.Header.Get("Accept-Language")
			if query != "" || accept != "" {
				loc = NewLocalizer(query, accept, defaultLang)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
