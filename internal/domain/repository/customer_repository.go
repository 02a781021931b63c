package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
)

// CustomerFilter criterios de listado de clientes.
type CustomerFilter struct {
	Search   string // subcadena sin distinguir mayúsculas sobre nombre, email, teléfono y notas
	SortBy   string // columna ya validada por el caso de uso
	SortDesc bool
}

// CustomerStats agregados de facturación de un cliente.
type CustomerStats struct {
	InvoiceCount int64
	TotalBilled  decimal.Decimal
}

// CustomerRepository define el puerto de persistencia para Customer.
// Todas las lecturas y escrituras van acotadas al usuario dueño.
type CustomerRepository interface {
	Create(customer *entity.Customer) error
	GetByID(userID, id string) (*entity.Customer, error)
	GetByName(userID, name string) (*entity.Customer, error)
	List(userID string, filter CustomerFilter) ([]*entity.Customer, error)
	Count(userID string) (int64, error)
	Update(customer *entity.Customer) error
	Delete(userID, id string) error
	Stats(userID, id string) (CustomerStats, error)
}
