package domain

// SessionStatus es el estado derivado de autenticacion del cliente.
type SessionStatus string

const (
	StatusUnauthenticated SessionStatus = "unauthenticated"
	StatusPending         SessionStatus = "pending"
	StatusAuthenticated   SessionStatus = "authenticated"
	StatusError           SessionStatus = "error"
)

// Session es la foto del estado de autenticacion del proceso.
// Status authenticated implica User != nil; pending implica fetch de perfil en curso.
type Session struct {
	Token     string        `json:"-"`
	User      *User         `json:"user,omitempty"`
	Status    SessionStatus `json:"status"`
	LastError string        `json:"last_error,omitempty"`
}

// HasToken reporta si hay un token cargado (no implica autenticado).
func (s Session) HasToken() bool {
	return s.Token != ""
}
