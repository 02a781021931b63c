// Package validation contiene las validaciones de formato de los datos que ingresa el usuario.
// Ninguna función falla con error: todas devuelven (válido, mensaje) para mostrarse junto al campo.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jhoicas/taller-facturacion/internal/domain"
)

// Límites de longitud (en caracteres).
const (
	MaxNameLength     = 100
	MaxEmailLength    = 100
	MaxPhoneLength    = 20
	MaxAddressLength  = 500
	MaxNotesLength    = 1000
	MinPasswordLength = 8
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\).]{10,20}$`)
)

// ValidateName el nombre es obligatorio y no puede superar MaxNameLength caracteres.
func ValidateName(name string) (bool, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, "El nombre es obligatorio"
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return false, fmt.Sprintf("El nombre no puede superar %d caracteres", MaxNameLength)
	}
	return true, ""
}

// ValidateEmail el email es opcional; si viene, debe tener formato local@dominio.
func ValidateEmail(email string) (bool, string) {
	if email == "" {
		return true, ""
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return false, fmt.Sprintf("El email no puede superar %d caracteres", MaxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return false, "Ingrese un email válido"
	}
	return true, ""
}

// ValidatePhone el teléfono es opcional; admite dígitos, espacios y los separadores + ( ) - .
func ValidatePhone(phone string) (bool, string) {
	if phone == "" {
		return true, ""
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return false, fmt.Sprintf("El teléfono no puede superar %d caracteres", MaxPhoneLength)
	}
	if !phonePattern.MatchString(phone) {
		return false, "Ingrese un teléfono válido"
	}
	return true, ""
}

// ValidatePassword exige al menos MinPasswordLength caracteres con letras y números.
func ValidatePassword(password string) (bool, string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false, fmt.Sprintf("La contraseña debe tener al menos %d caracteres", MinPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return false, "La contraseña debe contener letras y números"
	}
	return true, ""
}

// CustomerData campos editables de un cliente.
type CustomerData struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
}

// ValidateCustomerData valida todos los campos y devuelve los errores por nombre de campo.
func ValidateCustomerData(data CustomerData) (bool, map[string]string) {
	errs := make(map[string]string)
	if ok, msg := ValidateName(data.Name); !ok {
		errs["name"] = msg
	}
	if ok, msg := ValidateEmail(data.Email); !ok {
		errs["email"] = msg
	}
	if ok, msg := ValidatePhone(data.Phone); !ok {
		errs["phone"] = msg
	}
	if utf8.RuneCountInString(data.Address) > MaxAddressLength {
		errs["address"] = fmt.Sprintf("La dirección no puede superar %d caracteres", MaxAddressLength)
	}
	if utf8.RuneCountInString(data.Notes) > MaxNotesLength {
		errs["notes"] = fmt.Sprintf("Las notas no pueden superar %d caracteres", MaxNotesLength)
	}
	return len(errs) == 0, errs
}

// Error agrupa errores por campo. errors.Is(err, domain.ErrInvalidInput) es verdadero.
type Error struct {
	Fields map[string]string
}

// NewError crea un Error con un único campo.
func NewError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", domain.ErrInvalidInput.Error(), strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return domain.ErrInvalidInput }
