package auth_test

import (
	"encoding/json"
	"testing"

	"github.com/dropDatabas3/cadenza/internal/auth"
)

func TestParseScope_EmptyProducesEmptySet(t *testing.T) {
	s := auth.ParseScope("")
	if s.Len() != 0 {
		t.Fatalf("expected empty set, got %d tokens", s.Len())
	}
	if s.Scope() != "" {
		t.Fatalf("expected empty wire form, got %q", s.Scope())
	}
}

func TestParseScope_WhitespaceOnly(t *testing.T) {
	s := auth.ParseScope("   ")
	if s.Len() != 0 {
		t.Fatalf("expected empty set, got %d tokens", s.Len())
	}
}

func TestScopes_DeterministicSerialization(t *testing.T) {
	a := auth.ParseScope("user-library-read user-playlists-write")
	b := auth.ParseScope("user-playlists-write user-library-read")

	if a.Scope() != b.Scope() {
		t.Fatalf("order-insensitive sets serialized differently: %q vs %q", a.Scope(), b.Scope())
	}
	if a.Scope() != "user-library-read user-playlists-write" {
		t.Fatalf("expected lexicographic order, got %q", a.Scope())
	}
}

func TestScopes_DuplicatesCollapse(t *testing.T) {
	s := auth.ParseScope("user-library-read user-library-read")
	if s.Len() != 1 {
		t.Fatalf("expected 1 token, got %d", s.Len())
	}
}

func TestScopes_Equal(t *testing.T) {
	a := auth.ParseScope("a b c")
	b := auth.ParseScope("c b a")
	c := auth.ParseScope("a b")

	if !a.Equal(b) {
		t.Fatal("set equality should ignore order")
	}
	if a.Equal(c) {
		t.Fatal("sets of different size must not be equal")
	}
}

func TestScopes_HasAndMissing(t *testing.T) {
	s := auth.ParseScope("user-library-read user-settings-write")

	if !s.Has("user-library-read") {
		t.Fatal("expected Has to find present token")
	}
	if s.Has("user-library-read", "user-image-read") {
		t.Fatal("Has must require all tokens")
	}

	missing := s.Missing(auth.ParseScope("user-library-read user-image-read user-image-write"))
	if missing.Scope() != "user-image-read user-image-write" {
		t.Fatalf("unexpected missing set: %q", missing.Scope())
	}
}

func TestScopes_JSONRoundtrip(t *testing.T) {
	orig := auth.ParseScope("b a")

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"a b"` {
		t.Fatalf("expected sorted wire form, got %s", data)
	}

	var back auth.Scopes
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !orig.Equal(back) {
		t.Fatalf("roundtrip changed the set: %q vs %q", orig.Scope(), back.Scope())
	}
}

func TestScopeDescriptions_CoverAllCatalogScopes(t *testing.T) {
	for _, scope := range []string{
		auth.ScopeUserFollowingRead, auth.ScopeUserFollowingWrite,
		auth.ScopeUserLibraryRead, auth.ScopeUserLibraryWrite,
		auth.ScopeUserPlaylistsRead, auth.ScopeUserPlaylistsWrite,
		auth.ScopeUserSettingsRead, auth.ScopeUserSettingsWrite,
		auth.ScopeUserImageRead, auth.ScopeUserImageWrite,
		auth.ScopeUserStreamsRead, auth.ScopeUserStreamsWrite,
	} {
		if _, ok := auth.ScopeDescriptions[scope]; !ok {
			t.Errorf("scope %q has no description", scope)
		}
	}
}
