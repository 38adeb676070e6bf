package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/cadenza/internal/cache"
	"github.com/dropDatabas3/cadenza/internal/config"
	"github.com/dropDatabas3/cadenza/internal/metrics"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/security/token"
)

// TokenPolicy fija tamaños y TTLs de los artefactos efímeros.
type TokenPolicy struct {
	Type string

	AccessSize int
	AccessTTL  time.Duration // 0 = sin expiración

	RefreshSize int
	RefreshTTL  time.Duration

	AuthorizationSize int
	AuthorizationTTL  time.Duration

	VerificationSize int
	VerificationTTL  time.Duration
}

// PolicyFromConfig traduce la configuración YAML a la política del core.
func PolicyFromConfig(cfg *config.Config) TokenPolicy {
	return TokenPolicy{
		Type:              cfg.Token.Type,
		AccessSize:        cfg.Token.Access.Size,
		AccessTTL:         cfg.Token.Access.TTL.Std(),
		RefreshSize:       cfg.Token.Refresh.Size,
		RefreshTTL:        cfg.Token.Refresh.TTL.Std(),
		AuthorizationSize: cfg.Authorization.Size,
		AuthorizationTTL:  cfg.Authorization.TTL.Std(),
		VerificationSize:  cfg.Verification.Size,
		VerificationTTL:   cfg.Verification.TTL.Std(),
	}
}

// Tokens es el par access/refresh emitido en cada login / grant / refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // segundos
	CreatedAt    time.Time
}

// ExpiresAt retorna created_at + expires_in.
func (t Tokens) ExpiresAt() time.Time {
	return t.CreatedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// TokensData es la forma expuesta en el token endpoint.
type TokensData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// IntoData arma la respuesta wire; el scope sale del contexto ligado.
func (t Tokens) IntoData(c Context) TokensData {
	var scope string
	if cu, ok := c.(ClientUserContext); ok {
		scope = cu.Scopes.Scope()
	}
	return TokensData{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		ExpiresIn:    t.ExpiresIn,
		Scope:        scope,
	}
}

// TokenService emite, valida y revoca los artefactos efímeros de auth.
type TokenService struct {
	store  *EphemeralStore
	policy TokenPolicy
}

func NewTokenService(c cache.Client, policy TokenPolicy) *TokenService {
	return &TokenService{store: NewEphemeralStore(c), policy: policy}
}

// Store expone el store efímero para los servicios hermanos (TOTP).
func (s *TokenService) Store() *EphemeralStore { return s.store }

// Issue emite un par access/refresh ligado al contexto dado.
// Las dos escrituras no son atómicas entre sí: un crash entre ambas puede
// dejar un token emitido y el otro ausente (best-effort, ver DESIGN).
func (s *TokenService) Issue(ctx context.Context, c Context) (Tokens, error) {
	accessToken, err := token.GenerateHex(s.policy.AccessSize)
	if err != nil {
		return Tokens{}, fmt.Errorf("auth: generate access token: %w", err)
	}
	refreshToken, err := token.GenerateHex(s.policy.RefreshSize)
	if err != nil {
		return Tokens{}, fmt.Errorf("auth: generate refresh token: %w", err)
	}

	payload, err := EncodeContext(c)
	if err != nil {
		return Tokens{}, err
	}

	if err := s.store.Put(ctx, NamespaceAccessToken, accessToken, payload, s.policy.AccessTTL); err != nil {
		return Tokens{}, fmt.Errorf("auth: store access token: %w", err)
	}
	if err := s.store.Put(ctx, NamespaceRefreshToken, refreshToken, payload, s.policy.RefreshTTL); err != nil {
		return Tokens{}, fmt.Errorf("auth: store refresh token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(string(c.Type())).Inc()

	return Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    s.policy.Type,
		ExpiresIn:    int64(s.policy.AccessTTL / time.Second),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// ContextByAccessToken resuelve el contexto ligado a un access token.
// Ausente y expirado son ambos AuthNotFound.
func (s *TokenService) ContextByAccessToken(ctx context.Context, accessToken string) (Context, error) {
	return s.contextByToken(ctx, NamespaceAccessToken, accessToken, "invalid access token")
}

// ContextByRefreshToken resuelve el contexto ligado a un refresh token.
func (s *TokenService) ContextByRefreshToken(ctx context.Context, refreshToken string) (Context, error) {
	return s.contextByToken(ctx, NamespaceRefreshToken, refreshToken, "invalid refresh token")
}

func (s *TokenService) contextByToken(ctx context.Context, namespace, tok, missing string) (Context, error) {
	payload, ok, err := s.store.Get(ctx, namespace, tok)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch %s: %w", namespace, err)
	}
	if !ok {
		metrics.TokenLookups.WithLabelValues(namespace, "miss").Inc()
		return nil, ErrAuthNotFound(missing)
	}

	c, err := DecodeContext(payload)
	if err != nil {
		return nil, err
	}

	metrics.TokenLookups.WithLabelValues(namespace, "hit").Inc()
	return c, nil
}

// Refresh intercambia un refresh token válido por un par nuevo.
// El refresh token se borra antes de emitir: un solo uso, sin replay.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (Tokens, Context, error) {
	c, err := s.ContextByRefreshToken(ctx, refreshToken)
	if err != nil {
		return Tokens{}, nil, err
	}

	if err := s.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return Tokens{}, nil, err
	}

	tokens, err := s.Issue(ctx, c)
	if err != nil {
		return Tokens{}, nil, err
	}
	return tokens, c, nil
}

// RevokeAccessToken elimina el access token. Idempotente.
func (s *TokenService) RevokeAccessToken(ctx context.Context, accessToken string) error {
	if err := s.store.Delete(ctx, NamespaceAccessToken, accessToken); err != nil {
		return fmt.Errorf("auth: revoke access token: %w", err)
	}
	metrics.TokensRevoked.WithLabelValues(NamespaceAccessToken).Inc()
	return nil
}

// RevokeRefreshToken elimina el refresh token. Idempotente.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if err := s.store.Delete(ctx, NamespaceRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	metrics.TokensRevoked.WithLabelValues(NamespaceRefreshToken).Inc()
	return nil
}

// RevokeAll elimina todos los tokens cuyo contexto ligado sea igual al dado.
// Best-effort por diseño: recorre un keyspace vivo, así que un token creado
// en paralelo con el scan puede sobrevivir; entradas desaparecidas se omiten.
func (s *TokenService) RevokeAll(ctx context.Context, c Context) error {
	log := logger.From(ctx)

	for _, namespace := range []string{NamespaceAccessToken, NamespaceRefreshToken} {
		tokens, err := s.store.Scan(ctx, namespace)
		if err != nil {
			return fmt.Errorf("auth: scan %s: %w", namespace, err)
		}

		for _, tok := range tokens {
			payload, ok, err := s.store.Get(ctx, namespace, tok)
			if err != nil || !ok {
				continue // desapareció durante el scan
			}

			bound, err := DecodeContext(payload)
			if err != nil {
				log.Warn("skipping undecodable token payload", logger.Namespace(namespace), logger.Err(err))
				continue
			}

			if !EqualContexts(bound, c) {
				continue
			}

			if err := s.store.Delete(ctx, namespace, tok); err != nil {
				continue
			}
			metrics.TokensRevoked.WithLabelValues(namespace).Inc()
		}
	}
	return nil
}
