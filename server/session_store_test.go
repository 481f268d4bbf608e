package server

import (
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/cvdrop/identity"
)

// sessionStoreTests runs the common suite against any SessionStore implementation.
func sessionStoreTests(t *testing.T, store SessionStore) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		s := Session{
			Authenticated:  true,
			ExpiresAt:      time.Now().Add(time.Hour),
			LastAccessedAt: time.Now(),
		}
		store.Put("tok-1", s)
		got, ok := store.Get("tok-1")
		if !ok {
			t.Fatal("expected to find session")
		}
		if !got.Authenticated {
			t.Fatal("expected authenticated session")
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, ok := store.Get("no-such-token")
		if ok {
			t.Fatal("expected not found for missing token")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := Session{
			ExpiresAt:      time.Now().Add(time.Hour),
			LastAccessedAt: time.Now(),
		}
		store.Put("tok-del", s)
		store.Delete("tok-del")
		_, ok := store.Get("tok-del")
		if ok {
			t.Fatal("expected session to be deleted")
		}
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		// Should not panic.
		store.Delete("never-existed")
	})

	t.Run("Overwrite", func(t *testing.T) {
		s1 := Session{
			ExpiresAt:      time.Now().Add(time.Hour),
			LastAccessedAt: time.Now(),
		}
		store.Put("tok-ow", s1)

		s2 := s1
		s2.Authenticated = true
		store.Put("tok-ow", s2)

		got, ok := store.Get("tok-ow")
		if !ok {
			t.Fatal("expected session after overwrite")
		}
		if !got.Authenticated {
			t.Fatal("expected overwritten session to be authenticated")
		}
	})

	t.Run("ExpiredSession", func(t *testing.T) {
		s := Session{
			ExpiresAt:      time.Now().Add(-time.Second),
			LastAccessedAt: time.Now(),
		}
		store.Put("tok-exp", s)
		_, ok := store.Get("tok-exp")
		if ok {
			t.Fatal("expected expired session to be rejected")
		}
	})

	t.Run("ProfileRoundTrip", func(t *testing.T) {
		s := Session{
			Profile:        &identity.Profile{Subject: "sub-1", Name: "Ada"},
			ExpiresAt:      time.Now().Add(time.Hour),
			LastAccessedAt: time.Now(),
		}
		store.Put("tok-prof", s)
		got, ok := store.Get("tok-prof")
		if !ok {
			t.Fatal("expected to find session")
		}
		if got.Profile == nil || got.Profile.Name != "Ada" {
			t.Fatalf("got profile %+v, want name Ada", got.Profile)
		}
	})
}

func TestMemorySessionStore(t *testing.T) {
	sessionStoreTests(t, NewMemorySessionStore(0))
}

func TestMemorySessionStoreIdleTimeout(t *testing.T) {
	store := NewMemorySessionStore(10 * time.Millisecond)
	store.Put("tok", Session{
		ExpiresAt:      time.Now().Add(time.Hour),
		LastAccessedAt: time.Now().Add(-time.Minute),
	})
	if _, ok := store.Get("tok"); ok {
		t.Fatal("expected idle session to be rejected")
	}
}

func newBoltSessionStore(t *testing.T, secret string) *BoltSessionStore {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "sessions.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("opening bbolt db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store, err := NewBoltSessionStore(db, secret, 0)
	if err != nil {
		t.Fatalf("creating session store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestBoltSessionStore(t *testing.T) {
	sessionStoreTests(t, newBoltSessionStore(t, "shhh"))
}

func TestBoltSessionStoreRequiresSecret(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "sessions.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("opening bbolt db: %v", err)
	}
	defer db.Close()
	if _, err := NewBoltSessionStore(db, "", 0); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestBoltSessionStoreSecretChangeInvalidates(t *testing.T) {
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "sessions.db"), 0o600, nil)
	if err != nil {
		t.Fatalf("opening bbolt db: %v", err)
	}
	defer db.Close()

	first, err := NewBoltSessionStore(db, "secret-one", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer first.Close()
	first.Put("tok", Session{
		Authenticated:  true,
		ExpiresAt:      time.Now().Add(time.Hour),
		LastAccessedAt: time.Now(),
	})

	second, err := NewBoltSessionStore(db, "secret-two", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if _, ok := second.Get("tok"); ok {
		t.Fatal("session sealed under the old secret must be unreadable")
	}
}
