// Package pg implementa store.Store sobre PostgreSQL con pgx.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/cadenza/internal/auth"
	"github.com/dropDatabas3/cadenza/internal/privacy"
)

type Store struct{ pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- auth.ClientStore ---

func (s *Store) LookupClient(ctx context.Context, clientID uuid.UUID) (*auth.ClientInfo, error) {
	const q = `SELECT id, secret_hash, owner_id FROM clients WHERE id = $1`

	var info auth.ClientInfo
	err := s.pool.QueryRow(ctx, q, clientID).Scan(&info.ClientID, &info.SecretHash, &info.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lookup client: %w", err)
	}
	return &info, nil
}

func (s *Store) RehashClientSecret(ctx context.Context, clientID uuid.UUID, newHash string) error {
	const q = `UPDATE clients SET secret_hash = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, clientID, newHash); err != nil {
		return fmt.Errorf("pg: rehash client secret: %w", err)
	}
	return nil
}

// --- auth.UserStore ---

func (s *Store) LookupUserByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	const q = `SELECT id, password_hash, verified, COALESCE(totp_secret, '') FROM users WHERE email = $1`

	var info auth.UserInfo
	err := s.pool.QueryRow(ctx, q, email).Scan(&info.ID, &info.PasswordHash, &info.Verified, &info.TOTPSecret)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lookup user by email: %w", err)
	}
	return &info, nil
}

func (s *Store) InsertUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	const q = `INSERT INTO users (id, name, email, password_hash, verified, privacy_type)
	           VALUES ($1, $2, $3, $4, FALSE, 'public') RETURNING id`

	id := uuid.New()
	if err := s.pool.QueryRow(ctx, q, id, name, email, passwordHash).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("pg: insert user: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM users WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("pg: delete user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUserPasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, userID, passwordHash); err != nil {
		return fmt.Errorf("pg: update password hash: %w", err)
	}
	return nil
}

func (s *Store) MarkUserVerified(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE users SET verified = TRUE WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("pg: mark user verified: %w", err)
	}
	return nil
}

// --- auth.SecretStore ---

func (s *Store) ConfirmTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	const q = `UPDATE users SET totp_secret = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, userID, secret); err != nil {
		return fmt.Errorf("pg: confirm totp secret: %w", err)
	}
	return nil
}

// --- privacy.Source ---

func (s *Store) LookupUserPrivacy(ctx context.Context, userID uuid.UUID) (*privacy.UserPrivacy, error) {
	const q = `SELECT id, privacy_type FROM users WHERE id = $1`

	var p privacy.UserPrivacy
	err := s.pool.QueryRow(ctx, q, userID).Scan(&p.ID, &p.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lookup user privacy: %w", err)
	}
	return &p, nil
}

func (s *Store) LookupPlaylistPrivacy(ctx context.Context, playlistID uuid.UUID) (*privacy.PlaylistPrivacy, error) {
	const q = `SELECT p.id, p.privacy_type, u.id, u.privacy_type
	           FROM playlists p JOIN users u ON u.id = p.owner_id
	           WHERE p.id = $1`

	var p privacy.PlaylistPrivacy
	err := s.pool.QueryRow(ctx, q, playlistID).Scan(&p.ID, &p.Type, &p.Owner.ID, &p.Owner.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lookup playlist privacy: %w", err)
	}
	return &p, nil
}

func (s *Store) PlaylistsByOwner(ctx context.Context, ownerID uuid.UUID) ([]privacy.PlaylistPrivacy, error) {
	const q = `SELECT p.id, p.privacy_type, u.id, u.privacy_type
	           FROM playlists p JOIN users u ON u.id = p.owner_id
	           WHERE p.owner_id = $1
	           ORDER BY p.id`

	rows, err := s.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pg: playlists by owner: %w", err)
	}
	defer rows.Close()

	var playlists []privacy.PlaylistPrivacy
	for rows.Next() {
		var p privacy.PlaylistPrivacy
		if err := rows.Scan(&p.ID, &p.Type, &p.Owner.ID, &p.Owner.Type); err != nil {
			return nil, fmt.Errorf("pg: scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: playlists by owner: %w", err)
	}
	return playlists, nil
}

func (s *Store) FriendIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	const q = `SELECT friend_id FROM friendships WHERE user_id = $1`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("pg: friend ids: %w", err)
	}
	defer rows.Close()

	friends := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("pg: scan friend id: %w", err)
		}
		friends[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: friend ids: %w", err)
	}
	return friends, nil
}
