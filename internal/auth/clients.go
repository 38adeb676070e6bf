package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/metrics"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/security/password"
)

// ClientCredentials es el par transitorio presentado por un cliente API.
// Nunca se persiste: la forma almacenada es ClientInfo.
type ClientCredentials struct {
	ClientID     uuid.UUID
	ClientSecret string
}

// ClientInfo es la proyección persistida de un cliente API.
type ClientInfo struct {
	ClientID   uuid.UUID
	SecretHash string
	OwnerID    uuid.UUID
}

// ClientStore es el contrato que el autenticador consume del store persistente.
type ClientStore interface {
	// LookupClient retorna nil (sin error) si el cliente no existe.
	LookupClient(ctx context.Context, clientID uuid.UUID) (*ClientInfo, error)
	RehashClientSecret(ctx context.Context, clientID uuid.UUID, newHash string) error
}

// ClientAuthenticator verifica client_id/client_secret contra el hash persistido.
type ClientAuthenticator struct {
	store  ClientStore
	params password.Params
}

func NewClientAuthenticator(store ClientStore, params password.Params) *ClientAuthenticator {
	return &ClientAuthenticator{store: store, params: params}
}

const invalidClientCredentials = "invalid client credentials"

// Authenticate verifica las credenciales y retorna la info persistida.
// Cliente inexistente y secret incorrecto producen el mismo error genérico:
// no hay señal que distinga uno del otro.
//
// Con un hash generado bajo parámetros viejos, rehashea y persiste como
// efecto secundario (migración-on-read); un fallo ahí se loggea y se ignora,
// nunca invalida una verificación exitosa.
func (a *ClientAuthenticator) Authenticate(ctx context.Context, creds ClientCredentials) (*ClientInfo, error) {
	info, err := a.store.LookupClient(ctx, creds.ClientID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		metrics.ClientAuthFailures.Inc()
		return nil, ErrAuthMismatch(invalidClientCredentials)
	}

	if !password.Verify(creds.ClientSecret, info.SecretHash) {
		metrics.ClientAuthFailures.Inc()
		return nil, ErrAuthMismatch(invalidClientCredentials)
	}

	if password.NeedsRehash(a.params, info.SecretHash) {
		a.rehash(ctx, creds)
	}
	return info, nil
}

func (a *ClientAuthenticator) rehash(ctx context.Context, creds ClientCredentials) {
	log := logger.From(ctx)

	newHash, err := password.Hash(a.params, creds.ClientSecret)
	if err != nil {
		log.Warn("client secret rehash failed", logger.ClientID(creds.ClientID), logger.Err(err))
		return
	}
	if err := a.store.RehashClientSecret(ctx, creds.ClientID, newHash); err != nil {
		log.Warn("client secret rehash persist failed", logger.ClientID(creds.ClientID), logger.Err(err))
	}
}
