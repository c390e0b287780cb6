package http

import "net/http"

// NotFoundHandler is the mux fallback: anything that misses a registered
// route gets the service's JSON error shape instead of the stdlib plain text.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such route")
	})
}
