package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/validation"
)

// errorMapping traduce un error de dominio a status HTTP y código.
type errorMapping struct {
	err    error
	status int
	code   string
}

// El orden importa: los errores específicos van antes que los genéricos.
var errorMappings = []errorMapping{
	{domain.ErrWeakPassword, fiber.StatusBadRequest, "WEAK_PASSWORD"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION_ERROR"},
	{domain.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrCustomerNotFound, fiber.StatusNotFound, "CUSTOMER_NOT_FOUND"},
	{domain.ErrUserNotFound, fiber.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS"},
	{domain.ErrInvoiceNumberExists, fiber.StatusConflict, "INVOICE_NUMBER_EXISTS"},
	{domain.ErrCustomerHasInvoices, fiber.StatusConflict, "CUSTOMER_HAS_INVOICES"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrDueBeforeIssued, fiber.StatusUnprocessableEntity, "DUE_BEFORE_ISSUED"},
	{domain.ErrTemplateNotFound, fiber.StatusUnprocessableEntity, "TEMPLATE_NOT_FOUND"},
	{domain.ErrPDFWrite, fiber.StatusInternalServerError, "PDF_WRITE"},
}

// writeError responde con el status y el código del error de dominio.
// Un error desconocido responde 500 sin exponer el detalle.
func writeError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "datos inválidos",
			Fields:  verr.Fields,
		})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func unauthorized(c *fiber.Ctx) error {
	return writeError(c, domain.ErrUnauthorized)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// ── Validación de DTOs ───────────────────────────────────────────────────────

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores usan el nombre JSON del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var tagMessages = map[string]string{
	"required": "es obligatorio",
	"email":    "debe ser un email válido",
	"max":      "es demasiado largo",
	"min":      "es demasiado corto",
	"oneof":    "tiene un valor no permitido",
	"datetime": "debe tener el formato AAAA-MM-DD",
}

// parseAndValidate decodifica el body en dst y aplica las etiquetas validate.
// Devuelve false si ya respondió con error.
func parseAndValidate(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, invalidBody(c)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, invalidBody(c)
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			msg, ok := tagMessages[fe.Tag()]
			if !ok {
				msg = "es inválido"
			}
			fields[fe.Field()] = msg
		}
		return false, writeError(c, &validation.Error{Fields: fields})
	}
	return true, nil
}
