package logger

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Campos estándar - HTTP

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Campos estándar - negocio

// UserID crea un campo para el ID del usuario.
func UserID(v uuid.UUID) zap.Field {
	return zap.String("user_id", v.String())
}

// ClientID crea un campo para el ID del cliente API.
func ClientID(v uuid.UUID) zap.Field {
	return zap.String("client_id", v.String())
}

// PlaylistID crea un campo para el ID de la playlist.
func PlaylistID(v uuid.UUID) zap.Field {
	return zap.String("playlist_id", v.String())
}

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Namespace crea un campo para el namespace de un token efímero.
func Namespace(v string) zap.Field {
	return zap.String("namespace", v)
}

// GrantType crea un campo para el grant type del token endpoint.
func GrantType(v string) zap.Field {
	return zap.String("grant_type", v)
}

// Campos estándar - sistema

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}
