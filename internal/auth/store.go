package auth

import (
	"context"
	"time"

	"github.com/dropDatabas3/cadenza/internal/cache"
)

// Namespaces del store efímero. Cada clase de token vive bajo su propio
// prefijo para evitar colisiones entre clases.
const (
	NamespaceAccessToken       = "access-token"
	NamespaceRefreshToken      = "refresh-token"
	NamespaceAuthorizationCode = "authorization-code"
	NamespaceVerificationCode  = "verification-code"
	NamespaceSecret            = "secret"

	nameSeparator = ":"
)

// EphemeralStore asocia strings opacos a payloads serializados con TTL,
// namespaced por clase de token, sobre el cache remoto compartido.
type EphemeralStore struct {
	cache cache.Client
}

func NewEphemeralStore(c cache.Client) *EphemeralStore {
	return &EphemeralStore{cache: c}
}

func (s *EphemeralStore) key(namespace, token string) string {
	return namespace + nameSeparator + token
}

// Put guarda la asociación. ttl 0 significa "no expira".
func (s *EphemeralStore) Put(ctx context.Context, namespace, token, value string, ttl time.Duration) error {
	return s.cache.Set(ctx, s.key(namespace, token), value, ttl)
}

// Get retorna el payload asociado. ok=false cubre tanto "nunca existió"
// como "expiró": indistinguibles para evitar enumeración de tokens.
func (s *EphemeralStore) Get(ctx context.Context, namespace, token string) (string, bool, error) {
	value, err := s.cache.Get(ctx, s.key(namespace, token))
	if err != nil {
		if cache.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Delete elimina la asociación. Idempotente.
func (s *EphemeralStore) Delete(ctx context.Context, namespace, token string) error {
	return s.cache.Delete(ctx, s.key(namespace, token))
}

// Scan retorna los tokens vivos del namespace (sin el prefijo).
// Itera un keyspace vivo: entradas que desaparecen durante el scan
// simplemente se omiten.
func (s *EphemeralStore) Scan(ctx context.Context, namespace string) ([]string, error) {
	keys, err := s.cache.Scan(ctx, namespace+nameSeparator)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(keys))
	prefixLen := len(namespace) + len(nameSeparator)
	for _, key := range keys {
		if len(key) <= prefixLen {
			continue
		}
		tokens = append(tokens, key[prefixLen:])
	}
	return tokens, nil
}
