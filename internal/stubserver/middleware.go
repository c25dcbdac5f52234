package stubserver

import (
	"net/http"
	"runtime/debug"
	"strings"
)

// ChainMiddleware wraps routeFunction with mw, applied outermost-first.
func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next(w, r)
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panicked")
				s.writeError(w, http.StatusInternalServerError, 0, "internal error")
			}
		}()
		next(w, r)
	}
}

// AuthMiddleware requires a valid bearer access token. An expired token gets
// the recoverable application code, anything else invalid gets the fatal one.
func (s *Server) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, codeInvalidSession, "missing bearer token")
			return
		}

		if err := s.verifyAccessToken(token); err != nil {
			if isExpired(err) {
				s.writeError(w, http.StatusUnauthorized, codeTokenExpired, "access token expired")
				return
			}
			s.writeError(w, http.StatusUnauthorized, codeInvalidSession, "invalid session")
			return
		}
		next(w, r)
	}
}
