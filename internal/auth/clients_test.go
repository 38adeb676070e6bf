package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/security/password"
)

// Parámetros chicos para que los tests no quemen CPU.
var testHashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type fakeClientStore struct {
	clients  map[uuid.UUID]*auth.ClientInfo
	rehashes int
}

func (f *fakeClientStore) LookupClient(_ context.Context, clientID uuid.UUID) (*auth.ClientInfo, error) {
	info, ok := f.clients[clientID]
	if !ok {
		return nil, nil
	}
	cp := *info
	return &cp, nil
}

func (f *fakeClientStore) RehashClientSecret(_ context.Context, clientID uuid.UUID, newHash string) error {
	f.clients[clientID].SecretHash = newHash
	f.rehashes++
	return nil
}

func newFakeClientStore(t *testing.T, clientID uuid.UUID, secret string, params password.Params) *fakeClientStore {
	t.Helper()
	hash, err := password.Hash(params, secret)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeClientStore{clients: map[uuid.UUID]*auth.ClientInfo{
		clientID: {ClientID: clientID, SecretHash: hash, OwnerID: uuid.New()},
	}}
}

func TestClientAuthenticator_Success(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	store := newFakeClientStore(t, clientID, "s3cret", testHashParams)
	authn := auth.NewClientAuthenticator(store, testHashParams)

	info, err := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: clientID, ClientSecret: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if info.ClientID != clientID {
		t.Fatalf("unexpected client %s", info.ClientID)
	}
	if store.rehashes != 0 {
		t.Fatal("hash under current params must not be rehashed")
	}
}

func TestClientAuthenticator_WrongSecretAndUnknownClientAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	store := newFakeClientStore(t, clientID, "s3cret", testHashParams)
	authn := auth.NewClientAuthenticator(store, testHashParams)

	_, errWrongSecret := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: clientID, ClientSecret: "wrong"})
	_, errUnknown := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: uuid.New(), ClientSecret: "s3cret"})

	for _, err := range []error{errWrongSecret, errUnknown} {
		if !auth.IsKind(err, auth.KindAuthMismatch) {
			t.Fatalf("expected AuthMismatch, got %v", err)
		}
	}
	if errWrongSecret.Error() != errUnknown.Error() {
		t.Fatalf("both failures must read identically: %q vs %q", errWrongSecret, errUnknown)
	}
}

func TestClientAuthenticator_RehashOnVerify(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	// Hash persistido bajo parámetros viejos.
	oldParams := password.Params{Memory: 4 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}
	store := newFakeClientStore(t, clientID, "s3cret", oldParams)
	authn := auth.NewClientAuthenticator(store, testHashParams)

	if _, err := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: clientID, ClientSecret: "s3cret"}); err != nil {
		t.Fatal(err)
	}
	if store.rehashes != 1 {
		t.Fatalf("expected one rehash, got %d", store.rehashes)
	}
	if password.NeedsRehash(testHashParams, store.clients[clientID].SecretHash) {
		t.Fatal("persisted hash must now match current params")
	}

	// La credencial sigue verificando contra el hash migrado.
	if _, err := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: clientID, ClientSecret: "s3cret"}); err != nil {
		t.Fatal(err)
	}
	if store.rehashes != 1 {
		t.Fatal("migrated hash must not be rehashed again")
	}
}

type failingRehashStore struct {
	*fakeClientStore
}

func (f *failingRehashStore) RehashClientSecret(context.Context, uuid.UUID, string) error {
	return context.DeadlineExceeded
}

func TestClientAuthenticator_RehashFailureDoesNotFailAuth(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()

	oldParams := password.Params{Memory: 4 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}
	store := &failingRehashStore{newFakeClientStore(t, clientID, "s3cret", oldParams)}
	authn := auth.NewClientAuthenticator(store, testHashParams)

	if _, err := authn.Authenticate(ctx, auth.ClientCredentials{ClientID: clientID, ClientSecret: "s3cret"}); err != nil {
		t.Fatalf("rehash failure must never invalidate a successful verification: %v", err)
	}
}
