package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Compress gzips responses from h for clients that accept it. Requests for
// the skip paths go straight to h; websocket upgrades must not be wrapped.
func Compress(h http.Handler, skip ...string) http.Handler {
	gz := gzhttp.GzipHandler(h)
	bypass := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		bypass[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bypass[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
