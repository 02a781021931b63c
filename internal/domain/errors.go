package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists  = errors.New("el email ya está registrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrInvalidCredentials  = errors.New("credenciales inválidas")
	ErrWeakPassword        = errors.New("contraseña débil")
	ErrCustomerNotFound    = errors.New("cliente no encontrado")
	ErrCustomerHasInvoices = errors.New("el cliente tiene facturas asociadas")
	ErrInvoiceNumberExists = errors.New("el número de factura ya existe")
	ErrDueBeforeIssued     = errors.New("la fecha de vencimiento no puede ser anterior a la de emisión")
	ErrTemplateNotFound    = errors.New("plantilla de factura no encontrada")
	ErrPDFWrite            = errors.New("no se pudo escribir el PDF")
)
