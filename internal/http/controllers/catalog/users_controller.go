package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
	"github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/privacy"
)

// UsersController expone perfiles de usuario detrás del motor de privacidad.
type UsersController struct {
	engine *privacy.Engine
	source Source
}

// NewUsersController crea un nuevo controller de usuarios.
func NewUsersController(engine *privacy.Engine, source Source) *UsersController {
	return &UsersController{engine: engine, source: source}
}

type userResponse struct {
	ID      string `json:"id"`
	Privacy string `json:"privacy"`
}

// Get maneja GET /v1/users/{userID}
// Para el viewer sin acceso, inexistente y denegado son errores distintos:
// NotFound no filtra existencia porque la existencia acá no es secreta.
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Get"))

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("malformed user ID"))
		return
	}

	viewerID := middlewares.ViewerIDFrom(ctx)
	if err := c.engine.CheckUser(ctx, userID, viewerID); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	u, err := c.source.LookupUserPrivacy(ctx, userID)
	if err != nil || u == nil {
		log.Warn("user vanished after access check", logger.UserID(userID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, userResponse{
		ID:      u.ID.String(),
		Privacy: string(u.Type),
	})
}

type playlistListResponse struct {
	Playlists []playlistResponse `json:"playlists"`
}

// ListPlaylists maneja GET /v1/users/{userID}/playlists
// Primero decide el acceso al perfil; después filtra la colección con el
// predicado de accesibilidad (un solo fetch de amistades para todo el listado).
func (c *UsersController) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.ListPlaylists"))

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("malformed user ID"))
		return
	}

	viewerID := middlewares.ViewerIDFrom(ctx)
	if err := c.engine.CheckUser(ctx, userID, viewerID); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	playlists, err := c.source.PlaylistsByOwner(ctx, userID)
	if err != nil {
		log.Error("list playlists by owner", logger.UserID(userID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	allowed, err := c.engine.PlaylistPredicate(ctx, viewerID)
	if err != nil {
		log.Error("build playlist predicate", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	out := playlistListResponse{Playlists: make([]playlistResponse, 0, len(playlists))}
	for _, p := range playlists {
		if !allowed(p) {
			continue
		}
		out.Playlists = append(out.Playlists, playlistResponse{
			ID:      p.ID.String(),
			OwnerID: p.Owner.ID.String(),
			Privacy: string(p.Type),
		})
	}

	httperrors.WriteJSON(w, http.StatusOK, out)
}
