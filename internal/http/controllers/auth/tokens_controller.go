package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	coreauth "github.com/dropDatabas3/cadenza/internal/auth"
	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
	"github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
)

// TokensController maneja el token endpoint OAuth y la revocación.
type TokensController struct {
	tokens  *coreauth.TokenService
	clients *coreauth.ClientAuthenticator
}

// NewTokensController crea un nuevo controller de tokens.
func NewTokensController(tokens *coreauth.TokenService, clients *coreauth.ClientAuthenticator) *TokensController {
	return &TokensController{tokens: tokens, clients: clients}
}

// clientCredentials extrae client_id/client_secret de Basic auth o del form.
// Basic gana si está presente, como manda RFC 6749 §2.3.1.
func clientCredentials(r *http.Request) (coreauth.ClientCredentials, error) {
	var rawID, secret string

	if id, pass, ok := r.BasicAuth(); ok {
		rawID, secret = id, pass
	} else {
		rawID = r.PostFormValue("client_id")
		secret = r.PostFormValue("client_secret")
	}

	if rawID == "" || secret == "" {
		return coreauth.ClientCredentials{}, coreauth.ErrAuthExpected("expected client credentials")
	}

	clientID, err := uuid.Parse(rawID)
	if err != nil {
		return coreauth.ClientCredentials{}, coreauth.ErrAuthInvalid("malformed client_id")
	}
	return coreauth.ClientCredentials{ClientID: clientID, ClientSecret: secret}, nil
}

// Token maneja POST /v1/oauth/token
// Grants soportados: authorization_code, client_credentials, refresh_token.
func (c *TokensController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.Token"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
		return
	}

	grantType := r.PostFormValue("grant_type")
	log = log.With(logger.GrantType(grantType))

	var (
		tokens    coreauth.Tokens
		principal coreauth.Context
		err       error
	)

	switch grantType {
	case "authorization_code":
		tokens, principal, err = c.authorizationCodeGrant(r)
	case "client_credentials":
		tokens, principal, err = c.clientCredentialsGrant(r)
	case "refresh_token":
		tokens, principal, err = c.refreshTokenGrant(r)
	default:
		err = httperrors.ErrBadRequest.WithDetail("unsupported grant_type")
	}

	if err != nil {
		log.Debug("token grant failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httperrors.WriteJSON(w, http.StatusOK, tokens.IntoData(principal))
}

func (c *TokensController) authorizationCodeGrant(r *http.Request) (coreauth.Tokens, coreauth.Context, error) {
	ctx := r.Context()

	creds, err := clientCredentials(r)
	if err != nil {
		return coreauth.Tokens{}, nil, err
	}
	if _, err := c.clients.Authenticate(ctx, creds); err != nil {
		return coreauth.Tokens{}, nil, err
	}

	code := r.PostFormValue("code")
	redirectURI := r.PostFormValue("redirect_uri")
	if code == "" {
		return coreauth.Tokens{}, nil, coreauth.ErrAuthExpected("expected authorization code")
	}

	ac, err := c.tokens.ConsumeAuthorizationCode(ctx, code, redirectURI)
	if err != nil {
		return coreauth.Tokens{}, nil, err
	}

	// El code pertenece al cliente que lo pidió, no a cualquiera que lo tenga.
	if ac.ClientID != creds.ClientID {
		return coreauth.Tokens{}, nil, coreauth.ErrAuthInvalid("client credentials mismatch")
	}

	principal := ac.IntoContext()
	tokens, err := c.tokens.Issue(ctx, principal)
	if err != nil {
		return coreauth.Tokens{}, nil, err
	}
	return tokens, principal, nil
}

func (c *TokensController) clientCredentialsGrant(r *http.Request) (coreauth.Tokens, coreauth.Context, error) {
	ctx := r.Context()

	creds, err := clientCredentials(r)
	if err != nil {
		return coreauth.Tokens{}, nil, err
	}
	if _, err := c.clients.Authenticate(ctx, creds); err != nil {
		return coreauth.Tokens{}, nil, err
	}

	principal := coreauth.ClientContext{ClientID: creds.ClientID}
	tokens, err := c.tokens.Issue(ctx, principal)
	if err != nil {
		return coreauth.Tokens{}, nil, err
	}
	return tokens, principal, nil
}

func (c *TokensController) refreshTokenGrant(r *http.Request) (coreauth.Tokens, coreauth.Context, error) {
	refreshToken := r.PostFormValue("refresh_token")
	if refreshToken == "" {
		return coreauth.Tokens{}, nil, coreauth.ErrAuthExpected("expected refresh token")
	}
	return c.tokens.Refresh(r.Context(), refreshToken)
}

type authorizeRequest struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope"`
}

// Authorize maneja POST /v1/oauth/authorize
// El usuario autenticado consiente los scopes y se emite un code one-shot.
func (c *TokensController) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.Authorize"))

	principal, ok := middlewares.PrincipalFrom(ctx)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthExpected("expected access token"))
		return
	}
	userID, ok := coreauth.UserIDOf(principal)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthInvalid("expected user-based token"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("malformed client_id"))
		return
	}
	if req.RedirectURI == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("redirect_uri es obligatorio"))
		return
	}

	code, err := c.tokens.IssueAuthorizationCode(ctx, coreauth.AuthorizationContext{
		ClientID:    clientID,
		UserID:      userID,
		Scopes:      coreauth.ParseScope(req.Scope),
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		log.Warn("issue authorization code failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"code":         code,
		"redirect_uri": req.RedirectURI,
	})
}

// Revoke maneja POST /v1/oauth/revoke
// Forma RFC 7009: token + token_type_hint opcional. Siempre 200 para
// tokens desconocidos (la revocación es idempotente).
func (c *TokensController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.Revoke"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("invalid form"))
		return
	}

	token := r.PostFormValue("token")
	if token == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("token es obligatorio"))
		return
	}

	var err error
	switch r.PostFormValue("token_type_hint") {
	case "refresh_token":
		err = c.tokens.RevokeRefreshToken(ctx, token)
	case "access_token":
		err = c.tokens.RevokeAccessToken(ctx, token)
	default:
		// Sin hint se intenta en ambos namespaces.
		if err = c.tokens.RevokeAccessToken(ctx, token); err == nil {
			err = c.tokens.RevokeRefreshToken(ctx, token)
		}
	}
	if err != nil {
		log.Warn("revoke failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
