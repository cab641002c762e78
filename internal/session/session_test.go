package session

import (
	"testing"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	store, err := NewStore("bbolt", t.TempDir()+"/session.db")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if _, found, err := store.Current(); err != nil || found {
		t.Fatalf("expected no session, found=%v err=%v", found, err)
	}

	sess := domain.Session{
		Token:     "tok-abc",
		Provider:  "github",
		User:      domain.User{Login: "octocat"},
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, found, err := store.Current()
	if err != nil || !found {
		t.Fatalf("Current: found=%v err=%v", found, err)
	}
	if got.Token != "tok-abc" || got.User.Login != "octocat" {
		t.Fatalf("session = %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found, _ := store.Current(); found {
		t.Fatalf("session survived Clear")
	}
}

func TestBoltStoreDropsExpiredSession(t *testing.T) {
	store, err := NewStore("bbolt", t.TempDir()+"/session.db")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if err := store.Save(domain.Session{
		Token:     "tok-old",
		ExpiresAt: time.Now().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, found, err := store.Current(); err != nil || found {
		t.Fatalf("expired session should be absent, found=%v err=%v", found, err)
	}
}

func TestMemoryStore(t *testing.T) {
	store, err := NewStore("memory", "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := store.Save(domain.Session{Token: "t1", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, found, err := store.Current()
	if err != nil || !found || got.Token != "t1" {
		t.Fatalf("Current: %+v found=%v err=%v", got, found, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found, _ := store.Current(); found {
		t.Fatalf("session survived Clear")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("keychain", ""); err == nil {
		t.Fatalf("expected error for unsupported store type")
	}
}
