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

// PlaylistsController expone playlists detrás del motor de privacidad.
type PlaylistsController struct {
	engine *privacy.Engine
	source Source
}

// NewPlaylistsController crea un nuevo controller de playlists.
func NewPlaylistsController(engine *privacy.Engine, source Source) *PlaylistsController {
	return &PlaylistsController{engine: engine, source: source}
}

type playlistResponse struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Privacy string `json:"privacy"`
}

// Get maneja GET /v1/playlists/{playlistID}
func (c *PlaylistsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PlaylistsController.Get"))

	playlistID, err := uuid.Parse(chi.URLParam(r, "playlistID"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("malformed playlist ID"))
		return
	}

	viewerID := middlewares.ViewerIDFrom(ctx)
	if err := c.engine.CheckPlaylist(ctx, playlistID, viewerID); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	p, err := c.source.LookupPlaylistPrivacy(ctx, playlistID)
	if err != nil || p == nil {
		log.Warn("playlist vanished after access check", logger.PlaylistID(playlistID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, playlistResponse{
		ID:      p.ID.String(),
		OwnerID: p.Owner.ID.String(),
		Privacy: string(p.Type),
	})
}
