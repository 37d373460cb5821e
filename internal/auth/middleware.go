package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/podium/internal/store"
)

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "podium_session"

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// User returns the authenticated user stored by [Service.Middleware].
func User(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(store.User)
	return u, ok
}

// UserID returns the authenticated user's ID, or "" outside an
// authenticated request.
func UserID(ctx context.Context) string {
	u, _ := User(ctx)
	return u.ID
}

// Cookies writes and clears the login cookie.
type Cookies struct {
	Name   string
	Secure bool
}

// Set stores tok in the response.
func (c Cookies) Set(w http.ResponseWriter, tok store.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(time.Until(tok.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token reads the login token from r. An Authorization bearer header is
// accepted for non-browser clients.
func (c Cookies) Token(r *http.Request) string {
	if ck, err := r.Cookie(c.name()); err == nil && ck.Value != "" {
		return ck.Value
	}
	tok, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return tok
}

func (c Cookies) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

// Middleware rejects unauthenticated requests with 401 and stores the
// caller in the request context.
func (s *Service) Middleware(c Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.Authenticate(r.Context(), c.Token(r))
			if err != nil {
				status, msg := http.StatusUnauthorized, "authentication required"
				if !errors.Is(err, ErrUnauthenticated) {
					slog.Error("authentication lookup failed", "err", err)
					status, msg = http.StatusInternalServerError, "internal error"
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
