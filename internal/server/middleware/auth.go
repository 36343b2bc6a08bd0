package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/kanban/internal/auth"
)

// Auth admits requests bearing a valid access token and stores the caller's
// auth.Principal in the request context. The token is read from the
// Authorization header or, for WebSocket upgrades that cannot set headers,
// from the access_token query parameter. Tokens without a tenant are
// answered 403: every board route is tenant-scoped.
func Auth(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			p, err := v.Verify(tok)
			switch {
			case errors.Is(err, auth.ErrNoTenant):
				writeProblem(w, http.StatusForbidden, "valid tenant required")
				return
			case err != nil:
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("auth: token rejected")
				writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}
