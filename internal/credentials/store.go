// Package credentials persiste el token bearer del cliente entre reinicios.
// Cada Store guarda como maximo un token.
package credentials

import (
	"context"
	"sync"
)

// Store es un almacen clave-valor de un solo token.
// Load devuelve "" sin error cuando no hay token guardado.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore guarda el token en memoria; util para tests y modo efimero.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{token: initial}
}

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
