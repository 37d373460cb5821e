// Package storetest is the conformance suite every [store.Store]
// implementation must pass.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/podium/internal/store"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

// base is truncated to microseconds, the coarsest precision of any backend.
var base = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"UserRoundTrip", testUserRoundTrip},
		{"DuplicateEmail", testDuplicateEmail},
		{"UnknownUser", testUnknownUser},
		{"TokenLifecycle", testTokenLifecycle},
		{"SessionRoundTrip", testSessionRoundTrip},
		{"ListSessionsNewestFirst", testListSessionsNewestFirst},
		{"SessionForUnknownUser", testSessionForUnknownUser},
		{"DeleteUserCascades", testDeleteUserCascades},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func newUser(t *testing.T, s store.Store, email string) store.User {
	t.Helper()
	u := store.User{ID: uuid.NewString(), Email: email, PasswordHash: "$2a$10$hash", CreatedAt: base}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	u.Email = store.NormalizeEmail(email)
	return u
}

func newSession(t *testing.T, s store.Store, userID, title string, created time.Time) store.SpeechSession {
	t.Helper()
	sess := store.SpeechSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Transcript: "Hello everyone, thanks for coming.",
		Duration:   42.5,
		Scores:     json.RawMessage(`{"overall":72}`),
		Feedback:   json.RawMessage(`{"summary":"Good start."}`),
		Metrics:    json.RawMessage(`{"posture":80}`),
		Provider:   "primary",
		CreatedAt:  created,
	}
	if err := s.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess
}

func testUserRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s, "  Ada@Example.com ")

	byEmail, err := s.UserByEmail(ctx, "ada@example.COM")
	if err != nil {
		t.Fatalf("UserByEmail: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Email != "ada@example.com" || byEmail.PasswordHash != u.PasswordHash {
		t.Errorf("UserByEmail = %+v, want %+v", byEmail, u)
	}
	if !byEmail.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", byEmail.CreatedAt, base)
	}

	byID, err := s.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("UserByID email = %q, want %q", byID.Email, u.Email)
	}
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	newUser(t, s, "grace@example.com")
	err := s.CreateUser(context.Background(), store.User{
		ID: uuid.NewString(), Email: "GRACE@example.com", PasswordHash: "x", CreatedAt: base,
	})
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func testUnknownUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UserByEmail err = %v, want ErrNotFound", err)
	}
	if _, err := s.UserByID(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UserByID err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteUser(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteUser err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetSession(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSession err = %v, want ErrNotFound", err)
	}
}

func testTokenLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s, "linus@example.com")
	tok := store.Token{Value: uuid.NewString(), UserID: u.ID, ExpiresAt: base.Add(time.Hour)}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	got, err := s.UserForToken(ctx, tok.Value, base)
	if err != nil {
		t.Fatalf("UserForToken: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("UserForToken = %q, want %q", got.ID, u.ID)
	}

	if _, err := s.UserForToken(ctx, tok.Value, base.Add(2*time.Hour)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired token err = %v, want ErrNotFound", err)
	}

	if err := s.DeleteToken(ctx, tok.Value); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := s.UserForToken(ctx, tok.Value, base); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted token err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteToken(ctx, tok.Value); err != nil {
		t.Errorf("deleting a missing token must succeed, got %v", err)
	}
}

func testSessionRoundTrip(t *testing.T, s store.Store) {
	u := newUser(t, s, "margaret@example.com")
	want := newSession(t, s, u.ID, "Quarterly update", base)

	got, err := s.GetSession(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != u.ID || got.Title != want.Title || got.Transcript != want.Transcript || got.Duration != want.Duration || got.Provider != want.Provider {
		t.Errorf("GetSession = %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}
	assertJSON(t, "scores", got.Scores, `{"overall":72}`)
	assertJSON(t, "feedback", got.Feedback, `{"summary":"Good start."}`)
	assertJSON(t, "metrics", got.Metrics, `{"posture":80}`)
}

func testListSessionsNewestFirst(t *testing.T, s store.Store) {
	u := newUser(t, s, "barbara@example.com")
	other := newUser(t, s, "ken@example.com")
	first := newSession(t, s, u.ID, "first", base)
	second := newSession(t, s, u.ID, "second", base.Add(time.Minute))
	newSession(t, s, other.ID, "foreign", base.Add(2*time.Minute))

	list, err := s.ListSessions(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("order = [%s %s], want newest first", list[0].Title, list[1].Title)
	}

	empty, err := s.ListSessions(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("ListSessions(unknown): %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListSessions(unknown) = %v, want empty non-nil slice", empty)
	}
}

func testSessionForUnknownUser(t *testing.T, s store.Store) {
	err := s.CreateSession(context.Background(), store.SpeechSession{
		ID: uuid.NewString(), UserID: uuid.NewString(), CreatedAt: base,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func testDeleteUserCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := newUser(t, s, "dennis@example.com")
	keep := newUser(t, s, "bjarne@example.com")
	sess := newSession(t, s, u.ID, "doomed", base)
	kept := newSession(t, s, keep.ID, "kept", base)
	tok := store.Token{Value: uuid.NewString(), UserID: u.ID, ExpiresAt: base.Add(time.Hour)}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if err := s.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := s.UserByID(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("user still present: %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session still present: %v", err)
	}
	if _, err := s.UserForToken(ctx, tok.Value, base); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("token still resolves: %v", err)
	}
	if _, err := s.GetSession(ctx, kept.ID); err != nil {
		t.Errorf("unrelated session removed: %v", err)
	}

	// The address is free again.
	newUser(t, s, "dennis@example.com")
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func assertJSON(t *testing.T, field string, got json.RawMessage, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("%s: unmarshal %q: %v", field, got, err)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("%s: bad fixture: %v", field, err)
	}
	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if string(gb) != string(wb) {
		t.Errorf("%s = %s, want %s", field, gb, wb)
	}
}
