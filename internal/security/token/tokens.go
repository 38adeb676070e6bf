package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// GenerateHex genera un token opaco aleatorio en hexadecimal (2*nBytes chars).
// Nunca se deriva de atributos visibles del usuario.
func GenerateHex(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateURLSafe genera un token opaco aleatorio (base64url sin padding).
func GenerateURLSafe(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
