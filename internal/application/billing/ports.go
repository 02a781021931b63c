package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción con los repositorios atados a ella.
// Cada caso de uso abre su propia transacción; ninguna abarca dos llamadas.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		users repository.UserRepository,
		customers repository.CustomerRepository,
		invoices repository.InvoiceRepository,
	) error) error
}

// InvoicePDFGenerator puerto de salida para generar el PDF de una factura.
// Errores esperados: domain.ErrTemplateNotFound si la plantilla no existe.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, snap InvoiceSnapshot) ([]byte, error)
}

// InvoiceSnapshot copia de solo lectura de una factura y su cliente,
// tomada dentro de una transacción para que el generador no dependa de la sesión.
type InvoiceSnapshot struct {
	InvoiceID     string
	InvoiceNumber string
	IssuedDate    time.Time
	DueDate       time.Time
	Status        string
	Template      string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string

	Items    []entity.LineItem
	Skipped  int
	Subtotal decimal.Decimal // Σ (horas × tarifa + repuestos), sin impuesto
	Tax      decimal.Decimal // Total - Subtotal
	Total    decimal.Decimal

	GeneratedAt time.Time
}
