package auth

import (
	"encoding/json"
	"sort"
	"strings"
)

// Separador en la forma wire: scopes space-delimited como en OAuth2.
const ScopeSeparator = " "

// Scopes del catálogo. Descripciones para la pantalla de consentimiento.
const (
	ScopeUserFollowingRead  = "user-following-read"
	ScopeUserFollowingWrite = "user-following-write"
	ScopeUserLibraryRead    = "user-library-read"
	ScopeUserLibraryWrite   = "user-library-write"
	ScopeUserPlaylistsRead  = "user-playlists-read"
	ScopeUserPlaylistsWrite = "user-playlists-write"
	ScopeUserSettingsRead   = "user-settings-read"
	ScopeUserSettingsWrite  = "user-settings-write"
	ScopeUserImageRead      = "user-image-read"
	ScopeUserImageWrite     = "user-image-write"
	ScopeUserStreamsRead    = "user-streams-read"
	ScopeUserStreamsWrite   = "user-streams-write"
)

// ScopeDescriptions mapea cada scope registrado a su descripción.
var ScopeDescriptions = map[string]string{
	ScopeUserFollowingRead:  "Read access to the user's following.",
	ScopeUserFollowingWrite: "Write access to the user's following.",
	ScopeUserLibraryRead:    "Read access to the user's library.",
	ScopeUserLibraryWrite:   "Write access to the user's library.",
	ScopeUserPlaylistsRead:  "Read access to the user's playlists.",
	ScopeUserPlaylistsWrite: "Write access to the user's playlists.",
	ScopeUserSettingsRead:   "Read access to the user's settings.",
	ScopeUserSettingsWrite:  "Write access to the user's settings.",
	ScopeUserImageRead:      "Read access to the user's image.",
	ScopeUserImageWrite:     "Write access to the user's image.",
	ScopeUserStreamsRead:    "Read access to the user's streams.",
	ScopeUserStreamsWrite:   "Write access to the user's streams.",
}

// Scopes es un set de permisos. La igualdad es igualdad de sets,
// no de strings: "a b" y "b a" representan el mismo grant.
type Scopes struct {
	tokens map[string]struct{}
}

// NewScopes construye un set a partir de tokens individuales.
func NewScopes(tokens ...string) Scopes {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return Scopes{tokens: set}
}

// ParseScope parsea la forma wire space-delimited.
// El string vacío produce el set vacío, nunca {""}.
func ParseScope(scope string) Scopes {
	return NewScopes(strings.Fields(scope)...)
}

// Scope serializa de vuelta a la forma wire, determinística (orden lexicográfico).
func (s Scopes) Scope() string {
	return strings.Join(s.List(), ScopeSeparator)
}

func (s Scopes) String() string { return s.Scope() }

// List retorna los tokens ordenados.
func (s Scopes) List() []string {
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s Scopes) Len() int { return len(s.tokens) }

// Has reporta si todos los tokens dados están en el set.
func (s Scopes) Has(tokens ...string) bool {
	for _, t := range tokens {
		if _, ok := s.tokens[t]; !ok {
			return false
		}
	}
	return true
}

// Missing retorna los scopes de required que no están en s.
func (s Scopes) Missing(required Scopes) Scopes {
	missing := make(map[string]struct{})
	for t := range required.tokens {
		if _, ok := s.tokens[t]; !ok {
			missing[t] = struct{}{}
		}
	}
	return Scopes{tokens: missing}
}

// Equal es igualdad de sets.
func (s Scopes) Equal(other Scopes) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for t := range s.tokens {
		if _, ok := other.tokens[t]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON serializa como string space-delimited.
func (s Scopes) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Scope())
}

func (s *Scopes) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseScope(raw)
	return nil
}
