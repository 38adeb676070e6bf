// Package catalog contiene los controllers de las vistas del catálogo
// gobernadas por privacidad.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/privacy"
)

// Source es el contrato que el catálogo consume del store persistente.
type Source interface {
	privacy.Source

	// PlaylistsByOwner retorna todas las playlists del usuario, sin filtrar;
	// el filtrado por accesibilidad es responsabilidad del controller.
	PlaylistsByOwner(ctx context.Context, ownerID uuid.UUID) ([]privacy.PlaylistPrivacy, error)
}

// Controllers agrupa los controllers del dominio catálogo.
type Controllers struct {
	Users     *UsersController
	Playlists *PlaylistsController
}

// NewControllers crea el agregador de controllers del catálogo.
func NewControllers(engine *privacy.Engine, source Source) *Controllers {
	return &Controllers{
		Users:     NewUsersController(engine, source),
		Playlists: NewPlaylistsController(engine, source),
	}
}
