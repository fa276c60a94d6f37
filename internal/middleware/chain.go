// Package middleware holds the HTTP middleware wrapped around the JSON API.
package middleware

import "net/http"

// Stack composes middleware so the first argument runs outermost.
//
//	api := middleware.Stack(requestLogger.Handler, security.Handler)
//	mux.Handle("/api/", api(apiMux))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
