package domain

import "time"

// User es el perfil publico de una cuenta. El hash de password nunca se serializa.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials son los datos que el usuario entrega en login o registro.
// Username solo se usa al registrarse.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult es lo que devuelve el servicio de cuentas tras login/registro.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
