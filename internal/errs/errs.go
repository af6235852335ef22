// Package errs agrupa los errores centinela compartidos entre capas.
package errs

import "errors"

var (
	// ErrAuthRejected indica credenciales invalidas o token expirado/revocado.
	// Quien lo recibe debe limpiar la sesion.
	ErrAuthRejected = errors.New("auth rejected")

	// ErrTransport indica que el servicio no respondio (red, 5xx, timeout).
	// La sesion y el token se conservan para reintentar.
	ErrTransport = errors.New("transport failure")

	// ErrValidation indica entrada invalida, rechazada antes de mutar estado.
	ErrValidation = errors.New("validation failure")

	// ErrConflict indica un registro duplicado (email o username tomado).
	ErrConflict = errors.New("conflict")

	// ErrNotFound indica que la entidad pedida no existe.
	ErrNotFound = errors.New("not found")
)
