// Package router define las rutas HTTP del servicio.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/cache"
	authctrl "github.com/dropDatabas3/cadenza/internal/http/controllers/auth"
	catalogctrl "github.com/dropDatabas3/cadenza/internal/http/controllers/catalog"
	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
	mw "github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/rate"
	"github.com/dropDatabas3/cadenza/internal/store"
)

// Deps contiene las dependencias para armar el router.
type Deps struct {
	Auth          *authctrl.Controllers
	Catalog       *catalogctrl.Controllers
	Authenticator *mw.Authenticator
	Store         store.Store
	Cache         cache.Client
	Limiter       rate.Limiter // opcional: limita los endpoints de credenciales
}

// New arma el router completo del servicio.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(chimw.Recoverer)

	registerHealthRoutes(r, deps)
	registerAuthRoutes(r, deps)
	registerCatalogRoutes(r, deps)

	return r
}

func registerAuthRoutes(r chi.Router, deps Deps) {
	a := deps.Authenticator
	c := deps.Auth

	limited := mw.RateLimit(deps.Limiter)

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(limited).Post("/register", c.Login.Register)
		r.With(limited).Post("/login", c.Login.Login)
		r.Post("/verify", c.Login.Verify)

		r.Group(func(r chi.Router) {
			r.Use(a.RequireBearer)
			r.Post("/revoke-all", c.Login.RevokeAll)
		})
	})

	r.Route("/v1/oauth", func(r chi.Router) {
		r.With(limited).Post("/token", c.Tokens.Token)
		r.Post("/revoke", c.Tokens.Revoke)

		r.Group(func(r chi.Router) {
			r.Use(a.RequireBearer)
			r.Post("/authorize", c.Tokens.Authorize)
		})
	})

	// El enrolamiento TOTP modifica la cuenta: exige scope de settings
	// para clientes delegados (el primer factor ya fue verificado).
	r.Route("/v1/totp", func(r chi.Router) {
		r.Use(a.RequireBearer)
		r.Use(mw.RequireScopes(auth.ScopeUserSettingsWrite))

		r.Post("/enroll", c.TOTP.Enroll)
		r.Post("/confirm", c.TOTP.Confirm)
	})
}

func registerCatalogRoutes(r chi.Router, deps Deps) {
	a := deps.Authenticator
	c := deps.Catalog

	r.Group(func(r chi.Router) {
		r.Use(a.OptionalBearer)

		r.Get("/v1/users/{userID}", c.Users.Get)
		r.Get("/v1/users/{userID}/playlists", c.Users.ListPlaylists)
		r.Get("/v1/playlists/{playlistID}", c.Playlists.Get)
	})
}

func registerHealthRoutes(r chi.Router, deps Deps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		checks := map[string]func(context.Context) error{
			"store": deps.Store.Ping,
			"cache": deps.Cache.Ping,
		}
		status := map[string]string{}
		ready := true

		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				status[name] = err.Error()
				ready = false
			} else {
				status[name] = "ok"
			}
		}

		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		httperrors.WriteJSON(w, code, status)
	})
}
