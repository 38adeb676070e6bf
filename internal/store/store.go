// Package store define el contrato del store persistente que el core de
// autorización consume. El catálogo en sí (tracks, álbumes, artistas) es
// un colaborador externo y no se modela acá.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/privacy"
)

// Store agrupa los contratos parciales que cada paquete consumidor define
// por su lado (accept interfaces). La implementación pgx vive en pg.
type Store interface {
	auth.ClientStore
	auth.UserStore
	auth.SecretStore
	privacy.Source

	// PlaylistsByOwner alimenta el listado de playlists del catálogo.
	PlaylistsByOwner(ctx context.Context, ownerID uuid.UUID) ([]privacy.PlaylistPrivacy, error)

	Ping(ctx context.Context) error
	Close()
}
