package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/security/token"
)

// Los verification codes ligan un code opaco a un user_id plano
// (sin Context): solo prueban posesión del email.

// IssueVerificationCode emite un code one-shot para el usuario dado.
func (s *TokenService) IssueVerificationCode(ctx context.Context, userID uuid.UUID) (string, error) {
	code, err := token.GenerateHex(s.policy.VerificationSize)
	if err != nil {
		return "", fmt.Errorf("auth: generate verification code: %w", err)
	}

	if err := s.store.Put(ctx, NamespaceVerificationCode, code, userID.String(), s.policy.VerificationTTL); err != nil {
		return "", fmt.Errorf("auth: store verification code: %w", err)
	}
	return code, nil
}

// ConsumeVerificationCode resuelve y borra el code en un solo paso.
func (s *TokenService) ConsumeVerificationCode(ctx context.Context, code string) (uuid.UUID, error) {
	payload, ok, err := s.store.Get(ctx, NamespaceVerificationCode, code)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: fetch verification code: %w", err)
	}
	if !ok {
		return uuid.Nil, ErrAuthNotFound("invalid verification code")
	}

	userID, err := uuid.Parse(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: decode verification code payload: %w", err)
	}

	if err := s.store.Delete(ctx, NamespaceVerificationCode, code); err != nil {
		return uuid.Nil, fmt.Errorf("auth: consume verification code: %w", err)
	}
	return userID, nil
}

// DeleteVerificationCode invalida un code explícitamente. Se usa en el
// rollback de registro: si el envío del email falla después de emitir,
// el code no puede quedar vivo.
func (s *TokenService) DeleteVerificationCode(ctx context.Context, code string) error {
	if err := s.store.Delete(ctx, NamespaceVerificationCode, code); err != nil {
		return fmt.Errorf("auth: delete verification code: %w", err)
	}
	return nil
}

// RevokeVerificationCodes borra todos los codes vivos del usuario dado,
// vía scan-and-filter (best-effort, igual que RevokeAll).
func (s *TokenService) RevokeVerificationCodes(ctx context.Context, userID uuid.UUID) error {
	codes, err := s.store.Scan(ctx, NamespaceVerificationCode)
	if err != nil {
		return fmt.Errorf("auth: scan verification codes: %w", err)
	}

	want := userID.String()
	for _, code := range codes {
		payload, ok, err := s.store.Get(ctx, NamespaceVerificationCode, code)
		if err != nil || !ok {
			continue // desapareció durante el scan
		}
		if payload != want {
			continue
		}
		_ = s.store.Delete(ctx, NamespaceVerificationCode, code)
	}
	return nil
}
