package http

import (
	"context"
	"net/http"
	"time"

	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

type identityKey struct{}

// requireAuth resolves the session from the bearer token or the session
// cookie and rejects the request with 401 when there is none.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}

		id, err := s.accounts.Authorize(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserID, id.UserID))
		next(w, r.WithContext(ctx))
	}
}

// identityFrom returns the identity stored by requireAuth.
func identityFrom(ctx context.Context) core.Identity {
	id, _ := ctx.Value(identityKey{}).(core.Identity)
	return id
}

func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) clearedSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
