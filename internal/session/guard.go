package session

import "gradient-chat/internal/domain"

// Decision es lo que la guarda de rutas decide para una vista protegida.
type Decision int

const (
	Redirect Decision = iota
	Loading
	Render
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case Loading:
		return "loading"
	default:
		return "redirect"
	}
}

// Guard es funcion pura del estado de sesion. Solo authenticated renderiza;
// un fetch de perfil en curso muestra carga; el resto redirige a /signin.
func Guard(status domain.SessionStatus) Decision {
	switch status {
	case domain.StatusAuthenticated:
		return Render
	case domain.StatusPending:
		return Loading
	default:
		return Redirect
	}
}
