package middlewares_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/cache"
	"github.com/dropDatabas3/cadenza/internal/http/middlewares"
)

func newFixture(t *testing.T) (*auth.TokenService, *middlewares.Authenticator) {
	t.Helper()
	tokens := auth.NewTokenService(cache.NewMemory(""), auth.TokenPolicy{
		Type:        "Bearer",
		AccessSize:  32,
		AccessTTL:   time.Hour,
		RefreshSize: 32,
	})
	return tokens, middlewares.NewAuthenticator(tokens)
}

func issueFor(t *testing.T, tokens *auth.TokenService, c auth.Context) string {
	t.Helper()
	issued, err := tokens.Issue(context.Background(), c)
	require.NoError(t, err)
	return issued.AccessToken
}

// echoPrincipal reporta si el request llegó con principal y de qué tipo.
func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	if c, ok := middlewares.PrincipalFrom(r.Context()); ok {
		_, _ = w.Write([]byte(string(c.Type())))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
}

func TestRequireBearer(t *testing.T) {
	tokens, authn := newFixture(t)
	handler := authn.RequireBearer(http.HandlerFunc(echoPrincipal))

	t.Run("valid token passes and binds the principal", func(t *testing.T) {
		token := issueFor(t, tokens, auth.UserContext{UserID: uuid.New()})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user", rec.Body.String())
	})

	t.Run("missing header is auth_expected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "auth_expected", decodeCode(t, rec))
	})

	t.Run("unknown token is auth_not_found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer deadbeef")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "auth_not_found", decodeCode(t, rec))
	})
}

func TestOptionalBearer(t *testing.T) {
	tokens, authn := newFixture(t)
	handler := authn.OptionalBearer(http.HandlerFunc(echoPrincipal))

	t.Run("absent header passes through as anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("present but invalid token still fails", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer deadbeef")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token binds the principal", func(t *testing.T) {
		token := issueFor(t, tokens, auth.ClientContext{ClientID: uuid.New()})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "client", rec.Body.String())
	})
}

func TestRequireScopes(t *testing.T) {
	tokens, authn := newFixture(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := authn.RequireBearer(middlewares.RequireScopes(auth.ScopeUserSettingsWrite)(ok))

	do := func(t *testing.T, c auth.Context) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, c))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("first-party user always passes", func(t *testing.T) {
		rec := do(t, auth.UserContext{UserID: uuid.New()})
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delegated client with the scope passes", func(t *testing.T) {
		rec := do(t, auth.ClientUserContext{
			ClientID: uuid.New(),
			UserID:   uuid.New(),
			Scopes:   auth.ParseScope(auth.ScopeUserSettingsWrite),
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("delegated client without the scope is 403 with the missing set", func(t *testing.T) {
		rec := do(t, auth.ClientUserContext{
			ClientID: uuid.New(),
			UserID:   uuid.New(),
			Scopes:   auth.ParseScope(auth.ScopeUserSettingsRead),
		})
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body struct {
			Code  string `json:"code"`
			Scope string `json:"scope"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "auth_scopes_missing", body.Code)
		require.Equal(t, auth.ScopeUserSettingsWrite, body.Scope)
	})

	t.Run("pure client token is rejected", func(t *testing.T) {
		rec := do(t, auth.ClientContext{ClientID: uuid.New()})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestViewerIDFrom(t *testing.T) {
	tokens, authn := newFixture(t)
	userID := uuid.New()

	var got *uuid.UUID
	handler := authn.OptionalBearer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = middlewares.ViewerIDFrom(r.Context())
	}))

	// Anónimo.
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Nil(t, got)

	// Usuario autenticado.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, auth.UserContext{UserID: userID}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	require.Equal(t, userID, *got)

	// Cliente puro: no hay viewer.
	got = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, auth.ClientContext{ClientID: uuid.New()}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Nil(t, got)
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}
