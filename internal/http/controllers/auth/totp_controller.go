package auth

import (
	"encoding/json"
	"net/http"

	coreauth "github.com/dropDatabas3/cadenza/internal/auth"
	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
	"github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
)

// TOTPController maneja el enrolamiento del segundo factor.
type TOTPController struct {
	totp *coreauth.TOTPService
}

// NewTOTPController crea un nuevo controller de TOTP.
func NewTOTPController(totp *coreauth.TOTPService) *TOTPController {
	return &TOTPController{totp: totp}
}

// Enroll maneja POST /v1/totp/enroll
// Idempotente: repetir la llamada devuelve el mismo secreto pendiente.
func (c *TOTPController) Enroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TOTPController.Enroll"))

	principal, ok := middlewares.PrincipalFrom(ctx)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthExpected("expected access token"))
		return
	}
	userID, ok := coreauth.UserIDOf(principal)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthInvalid("expected user-based token"))
		return
	}

	secret, provisioningURL, err := c.totp.Enroll(ctx, userID)
	if err != nil {
		log.Warn("totp enroll failed", logger.UserID(userID), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"secret":           secret,
		"provisioning_url": provisioningURL,
	})
}

type confirmRequest struct {
	Code string `json:"code"`
}

// Confirm maneja POST /v1/totp/confirm
func (c *TOTPController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TOTPController.Confirm"))

	principal, ok := middlewares.PrincipalFrom(ctx)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthExpected("expected access token"))
		return
	}
	userID, ok := coreauth.UserIDOf(principal)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthInvalid("expected user-based token"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code es obligatorio"))
		return
	}

	if err := c.totp.Confirm(ctx, userID, req.Code); err != nil {
		log.Debug("totp confirm failed", logger.UserID(userID), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
