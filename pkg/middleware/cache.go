package middleware

import (
	"fmt"
	"net/http"
)

type cacheHeaderWriter struct {
	http.ResponseWriter
	value   string
	decided bool
}

func (w *cacheHeaderWriter) WriteHeader(code int) {
	w.decide(code)
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheHeaderWriter) Write(b []byte) (int, error) {
	w.decide(http.StatusOK)
	return w.ResponseWriter.Write(b)
}

func (w *cacheHeaderWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// decide marks only successful responses as cacheable; errors such as a 503
// from an unavailable repository must never be served from a shared cache.
func (w *cacheHeaderWriter) decide(code int) {
	if w.decided {
		return
	}
	w.decided = true
	if code == http.StatusOK {
		w.Header().Set("Cache-Control", w.value)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
}

// CacheControl returns a middleware that marks successful GET responses as
// publicly cacheable for maxAge seconds, with an optional
// stale-while-revalidate window.
func CacheControl(maxAge, staleWhileRevalidate int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	if staleWhileRevalidate > 0 {
		value += fmt.Sprintf(", stale-while-revalidate=%d", staleWhileRevalidate)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")
			next.ServeHTTP(&cacheHeaderWriter{ResponseWriter: w, value: value}, r)
		})
	}
}
