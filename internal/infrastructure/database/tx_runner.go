package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción.
type TxRunner struct {
	db *gorm.DB
}

// NewTxRunner construye el runner sobre el gateway.
func NewTxRunner(g *Gateway) *TxRunner {
	return &TxRunner{db: g.db}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un panic dentro de fn hace Rollback y se vuelve a lanzar.
func (r *TxRunner) Run(ctx context.Context, fn func(
	users repository.UserRepository,
	customers repository.CustomerRepository,
	invoices repository.InvoiceRepository,
) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUserRepository(tx), NewCustomerRepository(tx), NewInvoiceRepository(tx))
	})
}
