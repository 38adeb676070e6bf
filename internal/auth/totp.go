package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/cadenza/internal/metrics"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
	"github.com/dropDatabas3/cadenza/internal/security/totp"
)

// SecretStore es el contrato para promover secretos TOTP confirmados.
// El secreto pendiente vive en el store efímero; el confirmado lo
// persiste el store externo junto al usuario.
type SecretStore interface {
	ConfirmTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
}

// TOTPService maneja el enrolamiento y la verificación del segundo factor.
type TOTPService struct {
	store   *EphemeralStore
	secrets SecretStore
	policy  totp.Policy
}

func NewTOTPService(store *EphemeralStore, secrets SecretStore, policy totp.Policy) *TOTPService {
	return &TOTPService{store: store, secrets: secrets, policy: policy}
}

// Enroll crea un secreto pendiente para el usuario si no hay uno.
// Llamadas repetidas retornan el secreto pendiente existente: nunca se
// rota en silencio un secreto que el usuario puede estar escaneando.
func (t *TOTPService) Enroll(ctx context.Context, userID uuid.UUID) (secret string, provisioningURL string, err error) {
	existing, ok, err := t.store.Get(ctx, NamespaceSecret, userID.String())
	if err != nil {
		return "", "", fmt.Errorf("auth: fetch pending totp secret: %w", err)
	}
	if ok {
		return existing, t.policy.ProvisioningURL(userID.String(), existing), nil
	}

	secret, err = totp.GenerateSecret()
	if err != nil {
		return "", "", fmt.Errorf("auth: generate totp secret: %w", err)
	}

	if err := t.store.Put(ctx, NamespaceSecret, userID.String(), secret, 0); err != nil {
		return "", "", fmt.Errorf("auth: store pending totp secret: %w", err)
	}
	return secret, t.policy.ProvisioningURL(userID.String(), secret), nil
}

// Confirm valida code contra el secreto pendiente. El éxito promueve el
// secreto al store persistente y borra la entrada pendiente; el fallo no
// consume nada.
func (t *TOTPService) Confirm(ctx context.Context, userID uuid.UUID, code string) error {
	secret, ok, err := t.store.Get(ctx, NamespaceSecret, userID.String())
	if err != nil {
		return fmt.Errorf("auth: fetch pending totp secret: %w", err)
	}
	if !ok {
		return ErrAuthNotFound("no pending secret")
	}

	if !t.policy.Verify(secret, code, time.Now()) {
		metrics.TOTPChecks.WithLabelValues("mismatch").Inc()
		return ErrAuthMismatch("code mismatch")
	}

	if err := t.secrets.ConfirmTOTPSecret(ctx, userID, secret); err != nil {
		return fmt.Errorf("auth: confirm totp secret: %w", err)
	}

	// Housekeeping: la promoción ya ocurrió, un fallo acá no la deshace.
	if err := t.store.Delete(ctx, NamespaceSecret, userID.String()); err != nil {
		logger.From(ctx).Warn("pending totp secret cleanup failed", logger.UserID(userID), logger.Err(err))
	}

	metrics.TOTPChecks.WithLabelValues("ok").Inc()
	return nil
}

// ValidateCode aplica la política de login:
//   - sin secreto persistido, el 2FA está deshabilitado y cualquier code
//     (incluso ausente) se ignora;
//   - con secreto, el code es obligatorio ("expected code" si falta,
//     "code mismatch" si no coincide).
func (t *TOTPService) ValidateCode(secret, code string) error {
	if secret == "" {
		return nil
	}
	if code == "" {
		metrics.TOTPChecks.WithLabelValues("expected").Inc()
		return ErrAuthExpected("expected code")
	}
	if !t.policy.Verify(secret, code, time.Now()) {
		metrics.TOTPChecks.WithLabelValues("mismatch").Inc()
		return ErrAuthMismatch("code mismatch")
	}
	metrics.TOTPChecks.WithLabelValues("ok").Inc()
	return nil
}
