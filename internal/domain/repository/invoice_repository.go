package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
)

// InvoiceFilter criterios del listado paginado.
type InvoiceFilter struct {
	Search string // número de factura o nombre del cliente
	Status string
}

// InvoiceRepository define el puerto de persistencia para Invoice.
// Las lecturas cargan el cliente asociado (Invoice.Customer).
type InvoiceRepository interface {
	Create(invoice *entity.Invoice) error
	Update(invoice *entity.Invoice) error
	Delete(userID, id string) error
	GetByID(userID, id string) (*entity.Invoice, error)
	GetByNumber(userID, number string) (*entity.Invoice, error)
	// NumberExists busca en todas las facturas del sistema, no solo las del usuario.
	NumberExists(number string) (bool, error)
	List(userID string, filter InvoiceFilter, limit, offset int) ([]*entity.Invoice, int64, error)
	Recent(userID string, limit int) ([]*entity.Invoice, error)
	Count(userID string) (int64, error)
	CountByCustomer(customerID string) (int64, error)
	SumTotalByStatus(userID string, statuses ...string) (decimal.Decimal, error)
	// CountDueBefore cuenta facturas en los estados dados con vencimiento estrictamente anterior a date.
	CountDueBefore(userID string, date time.Time, statuses ...string) (int64, error)
	// CountDueFrom cuenta facturas en los estados dados con vencimiento en date o posterior.
	CountDueFrom(userID string, date time.Time, statuses ...string) (int64, error)
}
