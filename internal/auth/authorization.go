package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/security/token"
)

// AuthorizationContext es el payload ligado a un authorization code:
// qué cliente pidió qué scopes para qué usuario, y a dónde redirigir.
type AuthorizationContext struct {
	ClientID    uuid.UUID `json:"client_id"`
	UserID      uuid.UUID `json:"user_id"`
	Scopes      Scopes    `json:"scope"`
	RedirectURI string    `json:"redirect_uri"`
}

// IntoContext convierte el contexto de autorización en el principal
// que quedará ligado a los tokens emitidos.
func (a AuthorizationContext) IntoContext() ClientUserContext {
	return ClientUserContext{ClientID: a.ClientID, UserID: a.UserID, Scopes: a.Scopes}
}

// IssueAuthorizationCode emite un code one-shot ligado al contexto dado.
func (s *TokenService) IssueAuthorizationCode(ctx context.Context, ac AuthorizationContext) (string, error) {
	code, err := token.GenerateURLSafe(s.policy.AuthorizationSize)
	if err != nil {
		return "", fmt.Errorf("auth: generate authorization code: %w", err)
	}

	payload, err := json.Marshal(ac)
	if err != nil {
		return "", fmt.Errorf("auth: encode authorization context: %w", err)
	}

	if err := s.store.Put(ctx, NamespaceAuthorizationCode, code, string(payload), s.policy.AuthorizationTTL); err != nil {
		return "", fmt.Errorf("auth: store authorization code: %w", err)
	}
	return code, nil
}

// ConsumeAuthorizationCode intercambia el code por su contexto.
// El code se borra antes de validar redirect_uri: un intento fallido
// también lo consume, así que no hay replay posible.
func (s *TokenService) ConsumeAuthorizationCode(ctx context.Context, code, redirectURI string) (AuthorizationContext, error) {
	payload, ok, err := s.store.Get(ctx, NamespaceAuthorizationCode, code)
	if err != nil {
		return AuthorizationContext{}, fmt.Errorf("auth: fetch authorization code: %w", err)
	}
	if !ok {
		return AuthorizationContext{}, ErrAuthNotFound("invalid authorization code")
	}

	if err := s.store.Delete(ctx, NamespaceAuthorizationCode, code); err != nil {
		return AuthorizationContext{}, fmt.Errorf("auth: consume authorization code: %w", err)
	}

	var ac AuthorizationContext
	if err := json.Unmarshal([]byte(payload), &ac); err != nil {
		return AuthorizationContext{}, fmt.Errorf("auth: decode authorization context: %w", err)
	}

	if ac.RedirectURI != redirectURI {
		return AuthorizationContext{}, ErrAuthInvalid("redirect URI mismatch")
	}
	return ac, nil
}
