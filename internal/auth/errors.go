package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind clasifica los fallos del subsistema de autorización.
// Cada kind tiene un código estable y un status HTTP por defecto,
// resueltos vía kindTable al construir el error.
type Kind int

const (
	// KindAuthExpected: la credencial o el token falta en el request.
	KindAuthExpected Kind = iota + 1
	// KindAuthInvalid: credencial presente pero malformada o inconsistente.
	KindAuthInvalid
	// KindAuthNotFound: bien formada pero sin entrada efímera asociada.
	// Cubre tanto "nunca existió" como "expiró": indistinguibles a propósito.
	KindAuthNotFound
	// KindAuthScopesMissing: principal válido con scopes insuficientes.
	KindAuthScopesMissing
	// KindAuthMismatch: comparación de password/secret/TOTP falló.
	KindAuthMismatch
	// KindNotFound: la entidad persistente referenciada no existe.
	KindNotFound
	// KindForbidden: la entidad existe pero la privacidad niega el acceso.
	KindForbidden
)

type kindDefaults struct {
	code   string
	status int
}

var kindTable = map[Kind]kindDefaults{
	KindAuthExpected:      {"auth_expected", http.StatusUnauthorized},
	KindAuthInvalid:       {"auth_invalid", http.StatusUnauthorized},
	KindAuthNotFound:      {"auth_not_found", http.StatusUnauthorized},
	KindAuthScopesMissing: {"auth_scopes_missing", http.StatusForbidden},
	KindAuthMismatch:      {"auth_mismatch", http.StatusUnauthorized},
	KindNotFound:          {"not_found", http.StatusNotFound},
	KindForbidden:         {"forbidden", http.StatusForbidden},
}

// Error es el error de dominio del core de autorización.
type Error struct {
	Kind    Kind
	Code    string
	Status  int
	Message string

	// Missing solo está presente para KindAuthScopesMissing.
	Missing Scopes
}

func (e *Error) Error() string { return e.Message }

// Is permite errors.Is(err, &Error{Kind: ...}) por kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func newError(kind Kind, message string) *Error {
	d := kindTable[kind]
	return &Error{Kind: kind, Code: d.code, Status: d.status, Message: message}
}

func ErrAuthExpected(message string) *Error { return newError(KindAuthExpected, message) }
func ErrAuthInvalid(message string) *Error  { return newError(KindAuthInvalid, message) }
func ErrAuthNotFound(message string) *Error { return newError(KindAuthNotFound, message) }
func ErrAuthMismatch(message string) *Error { return newError(KindAuthMismatch, message) }
func ErrNotFound(message string) *Error     { return newError(KindNotFound, message) }
func ErrForbidden(message string) *Error    { return newError(KindForbidden, message) }

// ErrScopesMissing construye el error con el set de scopes faltantes.
func ErrScopesMissing(missing Scopes) *Error {
	err := newError(KindAuthScopesMissing, fmt.Sprintf("scopes `%s` missing", missing.Scope()))
	err.Missing = missing
	return err
}

// KindOf retorna el kind de err, o 0 si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind verifica si err es un *Error del kind dado.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
