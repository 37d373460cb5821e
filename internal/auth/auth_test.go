package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MrWong99/podium/internal/auth"
	"github.com/MrWong99/podium/internal/store"
	"github.com/MrWong99/podium/internal/store/memstore"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*auth.Service, *clock, store.Store) {
	t.Helper()
	st := memstore.New()
	c := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	return auth.New(st, auth.WithBcryptCost(bcrypt.MinCost), auth.WithClock(c.now), auth.WithTTL(time.Hour)), c, st
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Ada@Example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}
	if u.PasswordHash == "correct horse" {
		t.Error("password stored in plain text")
	}

	got, tok, err := svc.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID || tok.UserID != u.ID || tok.Value == "" {
		t.Errorf("Login = %+v, %+v", got, tok)
	}

	who, err := svc.Authenticate(ctx, tok.Value)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if who.ID != u.ID {
		t.Errorf("Authenticate = %q, want %q", who.ID, u.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		email, password string
		want            error
	}{
		{"not-an-email", "long enough", auth.ErrInvalidEmail},
		{"", "long enough", auth.ErrInvalidEmail},
		{"a@example.com", "short", auth.ErrWeakPassword},
		{"a@example.com", strings.Repeat("x", 73), auth.ErrWeakPassword},
	}
	for _, tt := range tests {
		if _, err := svc.Register(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
			t.Errorf("Register(%q, len %d) err = %v, want %v", tt.email, len(tt.password), err, tt.want)
		}
	}

	if _, err := svc.Register(ctx, "dup@example.com", "password1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "DUP@example.com", "password2"); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "grace@example.com", "hopper1906"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "grace@example.com", "wrong-pass"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "hopper1906"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestAuthenticate_ExpiryAndLogout(t *testing.T) {
	t.Parallel()
	svc, c, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "linus@example.com", "penguins!"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, tok, err := svc.Login(ctx, "linus@example.com", "penguins!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, err := svc.Authenticate(ctx, tok.Value); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("expired token err = %v, want ErrUnauthenticated", err)
	}

	c.t = c.t.Add(-2 * time.Hour)
	if err := svc.Logout(ctx, tok.Value); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, tok.Value); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("revoked token err = %v, want ErrUnauthenticated", err)
	}
	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("empty token err = %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()
	svc, _, st := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "ken@example.com", "unix1969!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.DeleteAccount(ctx, u.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := st.UserByID(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("user still present: %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	svc, _, _ := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "barbara@example.com", "liskov1987")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, tok, err := svc.Login(ctx, "barbara@example.com", "liskov1987")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	cookies := auth.Cookies{Name: "sid"}
	var seen string
	h := svc.Middleware(cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/speech-sessions", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "authentication required") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/speech-sessions", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: tok.Value})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if seen != u.ID {
			t.Errorf("UserID = %q, want %q", seen, u.ID)
		}
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/speech-sessions", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})
}

func TestCookies_SetIsHttpOnly(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	auth.Cookies{Secure: true}.Set(rec, store.Token{Value: "abc", ExpiresAt: time.Now().Add(time.Hour)})

	res := rec.Result()
	cs := res.Cookies()
	if len(cs) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cs))
	}
	c := cs[0]
	if c.Name != auth.DefaultCookieName || c.Value != "abc" || !c.HttpOnly || !c.Secure {
		t.Errorf("cookie = %+v", c)
	}
}
