// Package privacy computa la visibilidad de usuarios y playlists para un
// viewer dado, a partir del privacy type y la amistad confirmada.
package privacy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/auth"
)

// Type es la política de visibilidad por entidad.
type Type string

const (
	Public  Type = "public"
	Friends Type = "friends"
	Private Type = "private"
)

// UserPrivacy es la proyección read-only del store persistente.
type UserPrivacy struct {
	ID   uuid.UUID
	Type Type
}

// PlaylistPrivacy incluye la privacidad del owner: la playlist hereda
// la restricción más estricta de las dos.
type PlaylistPrivacy struct {
	ID    uuid.UUID
	Type  Type
	Owner UserPrivacy
}

// Source es el contrato consumido del store persistente.
type Source interface {
	// LookupUserPrivacy retorna nil (sin error) si el usuario no existe.
	LookupUserPrivacy(ctx context.Context, userID uuid.UUID) (*UserPrivacy, error)
	// LookupPlaylistPrivacy retorna nil (sin error) si la playlist no existe.
	LookupPlaylistPrivacy(ctx context.Context, playlistID uuid.UUID) (*PlaylistPrivacy, error)
	// FriendIDs retorna el set completo de amigos confirmados del usuario.
	FriendIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error)
}

// allows es la regla canónica, idéntica para usuarios y playlists.
// El dueño siempre se ve a sí mismo; después decide el privacy type.
func allows(ownerID uuid.UUID, t Type, viewerID uuid.UUID, areFriends bool) bool {
	if ownerID == viewerID {
		return true
	}
	switch t {
	case Private:
		return false
	case Friends:
		return areFriends
	default: // public
		return true
	}
}

// UserAccessibleBy evalúa la regla pura para un usuario.
func UserAccessibleBy(u UserPrivacy, viewerID uuid.UUID, areFriends bool) bool {
	return allows(u.ID, u.Type, viewerID, areFriends)
}

// PlaylistAccessibleBy es la conjunción de la regla de la playlist y la
// del owner: una playlist pública de un perfil privado sigue siendo
// privada para terceros.
func PlaylistAccessibleBy(p PlaylistPrivacy, viewerID uuid.UUID, areFriends bool) bool {
	return allows(p.Owner.ID, p.Type, viewerID, areFriends) &&
		UserAccessibleBy(p.Owner, viewerID, areFriends)
}

// UserPublic y PlaylistPublic son las reglas para viewers anónimos.
func UserPublic(u UserPrivacy) bool { return u.Type == Public }

func PlaylistPublic(p PlaylistPrivacy) bool {
	return p.Type == Public && UserPublic(p.Owner)
}

// Engine construye predicados de acceso y checks puntuales.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// UserPredicate retorna un predicado puro para filtrar una colección ya
// traída. viewerID nil es el viewer anónimo (solo entidades públicas,
// cero I/O). Con viewer autenticado, el set de amigos se trae exactamente
// una vez; la evaluación por entidad no hace más I/O.
func (e *Engine) UserPredicate(ctx context.Context, viewerID *uuid.UUID) (func(UserPrivacy) bool, error) {
	if viewerID == nil {
		return UserPublic, nil
	}

	viewer := *viewerID
	friends, err := e.source.FriendIDs(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("privacy: fetch friend ids: %w", err)
	}

	return func(u UserPrivacy) bool {
		_, areFriends := friends[u.ID]
		return UserAccessibleBy(u, viewer, areFriends)
	}, nil
}

// PlaylistPredicate es el equivalente para playlists; la amistad se
// evalúa contra el owner de cada playlist.
func (e *Engine) PlaylistPredicate(ctx context.Context, viewerID *uuid.UUID) (func(PlaylistPrivacy) bool, error) {
	if viewerID == nil {
		return PlaylistPublic, nil
	}

	viewer := *viewerID
	friends, err := e.source.FriendIDs(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("privacy: fetch friend ids: %w", err)
	}

	return func(p PlaylistPrivacy) bool {
		_, areFriends := friends[p.Owner.ID]
		return PlaylistAccessibleBy(p, viewer, areFriends)
	}, nil
}

// CheckUser decide el acceso del viewer a un usuario puntual.
// Usuario inexistente es NotFound; existente pero denegado es Forbidden.
// Son condiciones distintas a propósito (decisión de producto, ver DESIGN).
func (e *Engine) CheckUser(ctx context.Context, userID uuid.UUID, viewerID *uuid.UUID) error {
	u, err := e.source.LookupUserPrivacy(ctx, userID)
	if err != nil {
		return fmt.Errorf("privacy: lookup user: %w", err)
	}
	if u == nil {
		return auth.ErrNotFound(fmt.Sprintf("can not find the user with ID `%s`", userID))
	}

	if viewerID == nil {
		if !UserPublic(*u) {
			return auth.ErrForbidden(fmt.Sprintf("the user with ID `%s` is inaccessible", userID))
		}
		return nil
	}

	areFriends, err := e.areFriends(ctx, *viewerID, userID)
	if err != nil {
		return err
	}
	if !UserAccessibleBy(*u, *viewerID, areFriends) {
		return auth.ErrForbidden(fmt.Sprintf("the user with ID `%s` is inaccessible", userID))
	}
	return nil
}

// CheckPlaylist decide el acceso del viewer a una playlist puntual.
func (e *Engine) CheckPlaylist(ctx context.Context, playlistID uuid.UUID, viewerID *uuid.UUID) error {
	p, err := e.source.LookupPlaylistPrivacy(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("privacy: lookup playlist: %w", err)
	}
	if p == nil {
		return auth.ErrNotFound(fmt.Sprintf("can not find the playlist with ID `%s`", playlistID))
	}

	if viewerID == nil {
		if !PlaylistPublic(*p) {
			return auth.ErrForbidden(fmt.Sprintf("the playlist with ID `%s` is inaccessible", playlistID))
		}
		return nil
	}

	areFriends, err := e.areFriends(ctx, *viewerID, p.Owner.ID)
	if err != nil {
		return err
	}
	if !PlaylistAccessibleBy(*p, *viewerID, areFriends) {
		return auth.ErrForbidden(fmt.Sprintf("the playlist with ID `%s` is inaccessible", playlistID))
	}
	return nil
}

// areFriends reusa FriendIDs para mantener una sola fuente de verdad
// sobre la amistad (antes había dos helpers divergentes).
func (e *Engine) areFriends(ctx context.Context, viewerID, ownerID uuid.UUID) (bool, error) {
	if viewerID == ownerID {
		return false, nil // la regla del dueño no pasa por amistad
	}
	friends, err := e.source.FriendIDs(ctx, viewerID)
	if err != nil {
		return false, fmt.Errorf("privacy: fetch friend ids: %w", err)
	}
	_, ok := friends[ownerID]
	return ok, nil
}
