// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/accountd/accountd/internal/account"
)

const requestIDHeader = "X-Request-Id"

// requestID assigns a ULID to each request, honoring an inbound header so
// upstream proxies can correlate.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// accessLog logs one line per request. Query strings are not logged; they
// carry emails and tokens on several routes.
func accessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.InfoContext(r.Context(), "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", RequestIDFrom(r.Context()),
		)
	})
}

// AccessVerifier validates an access token and returns its claims.
// Implemented by token.Issuer.
type AccessVerifier interface {
	VerifyAccess(tokenStr string) (account.Claims, error)
}

// requireAuth validates the bearer token and stores the identity in the
// request context. Expiry and tampering collapse into one unauthorized
// message.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}

		claims, err := s.verifier.VerifyAccess(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), claims)))
	}
}

// requirePermission gates a handler on a capability code in the
// authenticated identity. Must be mounted inside requireAuth.
func (s *Server) requirePermission(code string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		if !slices.Contains(claims.Permissions, code) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		next(w, r)
	}
}
