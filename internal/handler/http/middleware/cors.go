// Package middleware provides HTTP middleware shared across the handler
// layer: CORS headers.
package middleware

import "net/http"

// CORS returns middleware that permits cross-origin requests from any
// origin, method, and header. Preflight OPTIONS requests are answered
// directly with 204 and never reach next.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
