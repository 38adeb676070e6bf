package auth

import (
	"encoding/json"
	"net/http"

	coreauth "github.com/dropDatabas3/cadenza/internal/auth"
	httperrors "github.com/dropDatabas3/cadenza/internal/http/errors"
	"github.com/dropDatabas3/cadenza/internal/http/middlewares"
	"github.com/dropDatabas3/cadenza/internal/observability/logger"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// LoginController maneja login, registro y verificación de cuentas.
type LoginController struct {
	login  *coreauth.LoginService
	tokens *coreauth.TokenService
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(login *coreauth.LoginService, tokens *coreauth.TokenService) *LoginController {
	return &LoginController{login: login, tokens: tokens}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("email y password son obligatorios"))
		return
	}

	tokens, principal, err := c.login.Login(ctx, req.Email, req.Password, req.Code)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	httperrors.WriteJSON(w, http.StatusOK, tokens.IntoData(principal))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register maneja POST /v1/auth/register
func (c *LoginController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Register"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("name, email y password son obligatorios"))
		return
	}

	userID, err := c.login.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		log.Debug("register failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, map[string]string{"user_id": userID.String()})
}

type verifyRequest struct {
	Code string `json:"code"`
}

// Verify maneja POST /v1/auth/verify
func (c *LoginController) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Verify"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code es obligatorio"))
		return
	}

	userID, err := c.login.Verify(ctx, req.Code)
	if err != nil {
		log.Debug("verify failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"user_id": userID.String()})
}

// RevokeAll maneja POST /v1/auth/revoke-all
// Requiere bearer: barre todos los tokens ligados al mismo principal.
func (c *LoginController) RevokeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.RevokeAll"))

	principal, ok := middlewares.PrincipalFrom(ctx)
	if !ok {
		httperrors.WriteError(w, coreauth.ErrAuthExpected("expected access token"))
		return
	}

	if err := c.tokens.RevokeAll(ctx, principal); err != nil {
		log.Warn("revoke all failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
