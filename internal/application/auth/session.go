package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
)

// Session usuario actual de una sesión interactiva. La sostiene la capa de presentación;
// es segura para uso concurrente.
type Session struct {
	auth *AuthUseCase

	mu      sync.RWMutex
	current *dto.UserResponse
}

// NewSession crea una sesión sin usuario.
func NewSession(auth *AuthUseCase) *Session {
	return &Session{auth: auth}
}

// Login autentica y deja al usuario como actual. Devuelve nil si falla;
// los errores de infraestructura se registran.
func (s *Session) Login(ctx context.Context, email, password string) *dto.UserResponse {
	user, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			s.auth.log.Error().Err(err).Msg("login: fallo inesperado")
		}
		return nil
	}
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
	return user
}

// Logout limpia el usuario actual.
func (s *Session) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// IsAuthenticated indica si hay usuario actual.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// CurrentUser usuario actual o nil.
func (s *Session) CurrentUser() *dto.UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
