package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/security/password"
)

// UserInfo es la proyección del usuario que el login necesita.
// TOTPSecret vacío significa 2FA deshabilitado.
type UserInfo struct {
	ID           uuid.UUID
	PasswordHash string
	Verified     bool
	TOTPSecret   string
}

// UserStore es el contrato de usuarios consumido del store persistente.
type UserStore interface {
	// LookupUserByEmail retorna nil (sin error) si el usuario no existe.
	LookupUserByEmail(ctx context.Context, email string) (*UserInfo, error)
	InsertUser(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	UpdateUserPasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
	MarkUserVerified(ctx context.Context, userID uuid.UUID) error
}

// Mailer entrega el código de verificación. La implementación SMTP vive
// en internal/email; los tests usan un fake.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LoginService orquesta login, registro y verificación de cuentas.
type LoginService struct {
	users  UserStore
	tokens *TokenService
	totp   *TOTPService
	mailer Mailer
	params password.Params
}

func NewLoginService(users UserStore, tokens *TokenService, totp *TOTPService, mailer Mailer, params password.Params) *LoginService {
	return &LoginService{users: users, tokens: tokens, totp: totp, mailer: mailer, params: params}
}

// Login autentica email+password (+code TOTP si el usuario lo tiene) y
// emite un par de tokens ligado a un UserContext.
func (s *LoginService) Login(ctx context.Context, email, pass, code string) (Tokens, Context, error) {
	user, err := s.users.LookupUserByEmail(ctx, email)
	if err != nil {
		return Tokens{}, nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if user == nil {
		return Tokens{}, nil, ErrNotFound(fmt.Sprintf("can not find the user with the email `%s`", email))
	}
	if !user.Verified {
		return Tokens{}, nil, ErrForbidden("user is not verified")
	}

	if !password.Verify(pass, user.PasswordHash) {
		return Tokens{}, nil, ErrAuthMismatch("password mismatch")
	}

	if err := s.totp.ValidateCode(user.TOTPSecret, code); err != nil {
		return Tokens{}, nil, err
	}

	c := UserContext{UserID: user.ID}
	tokens, err := s.tokens.Issue(ctx, c)
	if err != nil {
		return Tokens{}, nil, err
	}

	// Migración-on-read del hash de password, igual que con client secrets.
	if password.NeedsRehash(s.params, user.PasswordHash) {
		s.rehash(ctx, user.ID, pass)
	}
	return tokens, c, nil
}

func (s *LoginService) rehash(ctx context.Context, userID uuid.UUID, pass string) {
	log := logger.From(ctx)

	newHash, err := password.Hash(s.params, pass)
	if err != nil {
		log.Warn("password rehash failed", logger.UserID(userID), logger.Err(err))
		return
	}
	if err := s.users.UpdateUserPasswordHash(ctx, userID, newHash); err != nil {
		log.Warn("password rehash persist failed", logger.UserID(userID), logger.Err(err))
	}
}

// Register crea el usuario y le envía un verification code.
// Si el envío falla, usuario y code se dan de baja: el registro es
// todo-o-nada hacia afuera aunque el par de escrituras no sea atómico.
func (s *LoginService) Register(ctx context.Context, name, email, pass string) (uuid.UUID, error) {
	hash, err := password.Hash(s.params, pass)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: hash password: %w", err)
	}

	userID, err := s.users.InsertUser(ctx, name, email, hash)
	if err != nil {
		return uuid.Nil, err
	}

	code, err := s.tokens.IssueVerificationCode(ctx, userID)
	if err != nil {
		_ = s.users.DeleteUser(ctx, userID)
		return uuid.Nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code); err != nil {
		_ = s.users.DeleteUser(ctx, userID)
		_ = s.tokens.DeleteVerificationCode(ctx, code)
		return uuid.Nil, fmt.Errorf("auth: send verification code: %w", err)
	}
	return userID, nil
}

// Verify consume el verification code y marca la cuenta como verificada.
// También barre cualquier otro code vivo del mismo usuario.
func (s *LoginService) Verify(ctx context.Context, code string) (uuid.UUID, error) {
	userID, err := s.tokens.ConsumeVerificationCode(ctx, code)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.tokens.RevokeVerificationCodes(ctx, userID); err != nil {
		logger.From(ctx).Warn("verification code sweep failed", logger.UserID(userID), logger.Err(err))
	}

	if err := s.users.MarkUserVerified(ctx, userID); err != nil {
		return uuid.Nil, fmt.Errorf("auth: mark user verified: %w", err)
	}
	return userID, nil
}
