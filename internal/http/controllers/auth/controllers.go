// Package auth contiene los controllers de autenticación y autorización.
package auth

import (
	coreauth "github.com/dropDatabas3/cadenza/internal/auth"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login  *LoginController
	Tokens *TokensController
	TOTP   *TOTPController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(login *coreauth.LoginService, tokens *coreauth.TokenService, clients *coreauth.ClientAuthenticator, totp *coreauth.TOTPService) *Controllers {
	return &Controllers{
		Login:  NewLoginController(login, tokens),
		Tokens: NewTokensController(tokens, clients),
		TOTP:   NewTOTPController(totp),
	}
}
