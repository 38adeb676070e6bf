package auth

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ContextType discrimina las variantes de Context en la forma serializada.
// La unión es cerrada: nunca se infiere la variante por presencia de campos.
type ContextType string

const (
	ContextTypeUser       ContextType = "user"
	ContextTypeClient     ContextType = "client"
	ContextTypeClientUser ContextType = "client_user"
)

// Context identifica al principal autenticado ligado a un token.
// Variantes: UserContext, ClientContext, ClientUserContext.
type Context interface {
	Type() ContextType

	sealed()
}

// UserContext: sesión de primera parte de un usuario.
type UserContext struct {
	UserID uuid.UUID
}

func (UserContext) Type() ContextType { return ContextTypeUser }
func (UserContext) sealed()           {}

// ClientContext: cliente API actuando por sí mismo (client_credentials).
type ClientContext struct {
	ClientID uuid.UUID
}

func (ClientContext) Type() ContextType { return ContextTypeClient }
func (ClientContext) sealed()           {}

// ClientUserContext: cliente actuando en nombre de un usuario, con scopes.
// Es la única variante que porta scopes.
type ClientUserContext struct {
	ClientID uuid.UUID
	UserID   uuid.UUID
	Scopes   Scopes
}

func (ClientUserContext) Type() ContextType { return ContextTypeClientUser }
func (ClientUserContext) sealed()           {}

// EqualContexts compara tag y todos los campos.
// Para ClientUserContext la comparación de scopes es igualdad de sets.
func EqualContexts(a, b Context) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type() != b.Type() {
		return false
	}
	switch ac := a.(type) {
	case UserContext:
		bc := b.(UserContext)
		return ac.UserID == bc.UserID
	case ClientContext:
		bc := b.(ClientContext)
		return ac.ClientID == bc.ClientID
	case ClientUserContext:
		bc := b.(ClientUserContext)
		return ac.ClientID == bc.ClientID && ac.UserID == bc.UserID && ac.Scopes.Equal(bc.Scopes)
	default:
		return false
	}
}

// UserIDOf extrae el user ID de los contextos user-based.
func UserIDOf(c Context) (uuid.UUID, bool) {
	switch cc := c.(type) {
	case UserContext:
		return cc.UserID, true
	case ClientUserContext:
		return cc.UserID, true
	default:
		return uuid.Nil, false
	}
}

// RequireScopes valida que el contexto tenga los scopes requeridos.
// UserContext es primera parte y pasa siempre; ClientContext no es
// user-based y nunca pasa; ClientUserContext se compara contra su set.
func RequireScopes(c Context, required Scopes) error {
	switch cc := c.(type) {
	case UserContext:
		return nil
	case ClientUserContext:
		missing := cc.Scopes.Missing(required)
		if missing.Len() > 0 {
			return ErrScopesMissing(missing)
		}
		return nil
	default:
		return ErrAuthInvalid("expected user-based token")
	}
}

// contextEnvelope es la forma serializada almacenada contra cada token.
type contextEnvelope struct {
	ContextType ContextType `json:"context_type"`
	UserID      string      `json:"user_id,omitempty"`
	ClientID    string      `json:"client_id,omitempty"`
	Scope       *string     `json:"scope,omitempty"`
}

// EncodeContext serializa un Context con su tag explícito.
func EncodeContext(c Context) (string, error) {
	env := contextEnvelope{ContextType: c.Type()}

	switch cc := c.(type) {
	case UserContext:
		env.UserID = cc.UserID.String()
	case ClientContext:
		env.ClientID = cc.ClientID.String()
	case ClientUserContext:
		env.ClientID = cc.ClientID.String()
		env.UserID = cc.UserID.String()
		scope := cc.Scopes.Scope()
		env.Scope = &scope
	default:
		return "", fmt.Errorf("auth: unknown context type %q", c.Type())
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("auth: encode context: %w", err)
	}
	return string(data), nil
}

// DecodeContext deserializa despachando únicamente por el tag.
func DecodeContext(raw string) (Context, error) {
	var env contextEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("auth: decode context: %w", err)
	}

	switch env.ContextType {
	case ContextTypeUser:
		userID, err := uuid.Parse(env.UserID)
		if err != nil {
			return nil, fmt.Errorf("auth: decode user context: %w", err)
		}
		return UserContext{UserID: userID}, nil

	case ContextTypeClient:
		clientID, err := uuid.Parse(env.ClientID)
		if err != nil {
			return nil, fmt.Errorf("auth: decode client context: %w", err)
		}
		return ClientContext{ClientID: clientID}, nil

	case ContextTypeClientUser:
		clientID, err := uuid.Parse(env.ClientID)
		if err != nil {
			return nil, fmt.Errorf("auth: decode client user context: %w", err)
		}
		userID, err := uuid.Parse(env.UserID)
		if err != nil {
			return nil, fmt.Errorf("auth: decode client user context: %w", err)
		}
		var scope string
		if env.Scope != nil {
			scope = *env.Scope
		}
		return ClientUserContext{ClientID: clientID, UserID: userID, Scopes: ParseScope(scope)}, nil

	default:
		return nil, fmt.Errorf("auth: unknown context type %q", env.ContextType)
	}
}
