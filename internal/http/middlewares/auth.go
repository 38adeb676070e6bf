// Package middlewares contiene los middlewares HTTP de cadenza.
package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/auth"
	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
)

type principalKey struct{}

// PrincipalFrom extrae el Context autenticado del request, si hay uno.
func PrincipalFrom(ctx context.Context) (auth.Context, bool) {
	c, ok := ctx.Value(principalKey{}).(auth.Context)
	return c, ok
}

// ViewerIDFrom retorna el user ID del principal para el motor de
// privacidad: nil representa al viewer anónimo (o a un cliente puro).
func ViewerIDFrom(ctx context.Context) *uuid.UUID {
	if c, ok := PrincipalFrom(ctx); ok {
		if id, ok := auth.UserIDOf(c); ok {
			return &id
		}
	}
	return nil
}

// Authenticator resuelve bearer tokens a Contexts.
type Authenticator struct {
	tokens *auth.TokenService
}

func NewAuthenticator(tokens *auth.TokenService) *Authenticator {
	return &Authenticator{tokens: tokens}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("Bearer "):])
	return token, token != ""
}

// OptionalBearer resuelve el token si viene; su ausencia deja pasar el
// request como anónimo. Un token presente pero desconocido sí corta.
func (a *Authenticator) OptionalBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		c, err := a.tokens.ContextByAccessToken(r.Context(), token)
		if err != nil {
			httperrors.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, c)))
	})
}

// RequireBearer exige un access token válido.
func (a *Authenticator) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httperrors.WriteError(w, auth.ErrAuthExpected("expected access token"))
			return
		}

		c, err := a.tokens.ContextByAccessToken(r.Context(), token)
		if err != nil {
			httperrors.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, c)))
	})
}

// RequireScopes exige que el principal sea user-based y porte los scopes
// dados. Los contextos de primera parte (UserContext) pasan siempre.
func RequireScopes(scopes ...string) func(http.Handler) http.Handler {
	required := auth.NewScopes(scopes...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := PrincipalFrom(r.Context())
			if !ok {
				httperrors.WriteError(w, auth.ErrAuthExpected("expected access token"))
				return
			}
			if err := auth.RequireScopes(c, required); err != nil {
				httperrors.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
