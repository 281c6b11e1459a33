package session

import (
	"context"
	"testing"
	"time"
)

func TestCreateAndValidate(t *testing.T) {
	s := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()

	sess, err := s.Create(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if sess.Token == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := s.Validate(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Username != "admin" {
		t.Fatalf("validated session = %+v", got)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	s := NewMemoryStore(24 * time.Hour)

	got, err := s.Validate(context.Background(), "no-such-token")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("unknown token validated to %+v", got)
	}

	got, err = s.Validate(context.Background(), "")
	if err != nil || got != nil {
		t.Errorf("empty token validated to %+v, err %v", got, err)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	s := NewMemoryStore(24 * time.Hour)
	ctx := context.Background()

	sess, _ := s.Create(ctx, "admin")
	if err := s.Revoke(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Validate(ctx, sess.Token); got != nil {
		t.Error("revoked token still validates")
	}

	// Revoking again is a no-op, not an error.
	if err := s.Revoke(ctx, sess.Token); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}
}

func TestExpiryBoundary(t *testing.T) {
	ttl := 24 * time.Hour
	s := NewMemoryStore(ttl)
	ctx := context.Background()

	sess, _ := s.Create(ctx, "admin")
	created := sess.CreatedAt

	// Aged exactly ttl: still valid.
	s.now = func() time.Time { return created.Add(ttl) }
	if got, _ := s.Validate(ctx, sess.Token); got == nil {
		t.Error("session aged exactly ttl should validate")
	}

	// One instant past ttl: expired and lazily deleted.
	s.now = func() time.Time { return created.Add(ttl + time.Nanosecond) }
	if got, _ := s.Validate(ctx, sess.Token); got != nil {
		t.Error("session past ttl should not validate")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry not deleted, len = %d", s.Len())
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	ttl := time.Hour
	s := NewMemoryStore(ttl)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	old, _ := s.Create(ctx, "admin")
	s.now = func() time.Time { return base.Add(90 * time.Minute) }
	fresh, _ := s.Create(ctx, "admin")

	removed, err := s.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("swept %d sessions, want 1", removed)
	}
	if got, _ := s.Validate(ctx, old.Token); got != nil {
		t.Error("old session survived the sweep")
	}
	if got, _ := s.Validate(ctx, fresh.Token); got == nil {
		t.Error("fresh session was swept")
	}
}

func TestTokensAreUnique(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sess, _ := s.Create(context.Background(), "admin")
		if seen[sess.Token] {
			t.Fatalf("duplicate token after %d creates", i)
		}
		seen[sess.Token] = true
	}
}
