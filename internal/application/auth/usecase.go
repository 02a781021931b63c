package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
	"github.com/jhoicas/taller-facturacion/internal/domain/validation"
	"github.com/jhoicas/taller-facturacion/pkg/jwt"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

// TxRunner ejecuta fn en una transacción con los repositorios atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		users repository.UserRepository,
		customers repository.CustomerRepository,
		invoices repository.InvoiceRepository,
	) error) error
}

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// dummyHash se compara cuando el email no existe para que ambos caminos cuesten lo mismo.
var dummyHash = mustHash("taller-facturacion-dummy")

func mustHash(s string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}

// AuthUseCase casos de uso de autenticación: registro, login y cambio de contraseña.
type AuthUseCase struct {
	tx     TxRunner
	jwtCfg JWTConfig
	log    *logger.Logger
	cost   int
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx TxRunner, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{tx: tx, jwtCfg: jwtCfg, log: log, cost: bcrypt.DefaultCost}
}

// WithCost cambia el costo de bcrypt (tests).
func (uc *AuthUseCase) WithCost(cost int) *AuthUseCase {
	uc.cost = cost
	return uc
}

// NormalizeEmail quita espacios y pasa a minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register crea un usuario.
//
// Retorna:
//   - domain.ErrWeakPassword        si la contraseña no cumple la política (el mensaje va envuelto).
//   - domain.ErrInvalidInput        si el email no es válido.
//   - domain.ErrEmailAlreadyExists  si el email ya está registrado.
func (uc *AuthUseCase) Register(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	if ok, msg := validation.ValidatePassword(password); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWeakPassword, msg)
	}
	email = NormalizeEmail(email)
	if ok, msg := validation.ValidateEmail(email); !ok || email == "" {
		if msg == "" {
			msg = "El email es obligatorio"
		}
		return nil, validation.NewError("email", msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.tx.Run(ctx, func(users repository.UserRepository, _ repository.CustomerRepository, _ repository.InvoiceRepository) error {
		existing, err := users.GetByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrEmailAlreadyExists
		}
		return users.Create(user)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEmailAlreadyExists) {
			uc.log.Error().Err(err).Str("op", "auth.register").Msg("operación fallida")
		}
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Msg("usuario registrado")
	return toUserResponse(user), nil
}

// Authenticate verifica email y contraseña. Email desconocido y contraseña incorrecta
// devuelven el mismo domain.ErrInvalidCredentials.
func (uc *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	email = NormalizeEmail(email)
	var user *entity.User
	err := uc.tx.Run(ctx, func(users repository.UserRepository, _ repository.CustomerRepository, _ repository.InvoiceRepository) error {
		var err error
		user, err = users.GetByEmail(email)
		return err
	})
	if err != nil {
		uc.log.Error().Err(err).Str("op", "auth.authenticate").Msg("operación fallida")
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return toUserResponse(user), nil
}

// Login autentica y emite un JWT con el id y el email del usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("emitir token: %w", err)
	}
	return &dto.LoginResponse{Token: token, User: *user}, nil
}

// ResetPassword reemplaza la contraseña del usuario. Es la única modificación permitida sobre un usuario.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if ok, msg := validation.ValidatePassword(newPassword); !ok {
		return fmt.Errorf("%w: %s", domain.ErrWeakPassword, msg)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), uc.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = uc.tx.Run(ctx, func(users repository.UserRepository, _ repository.CustomerRepository, _ repository.InvoiceRepository) error {
		user, err := users.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUserNotFound
		}
		user.PasswordHash = string(hash)
		user.UpdatedAt = time.Now().UTC()
		return users.Update(user)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			uc.log.Error().Err(err).Str("op", "auth.reset_password").Msg("operación fallida")
		}
		return err
	}
	uc.log.Info().Str("user_id", userID).Msg("contraseña actualizada")
	return nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
