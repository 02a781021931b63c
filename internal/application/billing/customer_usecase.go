package billing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
	"github.com/jhoicas/taller-facturacion/internal/domain/validation"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

// Columnas por las que se puede ordenar la búsqueda de clientes.
var customerSortColumns = map[string]bool{
	"name":       true,
	"email":      true,
	"phone":      true,
	"address":    true,
	"notes":      true,
	"created_at": true,
	"updated_at": true,
}

// CustomerUseCase casos de uso para clientes. Todo queda acotado al usuario dueño.
type CustomerUseCase struct {
	tx  TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(tx TxRunner, log *logger.Logger) *CustomerUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CustomerUseCase{tx: tx, log: log, now: time.Now}
}

// List lista los clientes del usuario ordenados por nombre; search filtra por subcadena.
func (uc *CustomerUseCase) List(ctx context.Context, userID, search string) ([]*dto.CustomerResponse, error) {
	return uc.Search(ctx, userID, dto.CustomerSearch{Term: search, SortBy: "name"})
}

// Search filtra y ordena por cualquier columna editable o fecha. Un SortBy desconocido ordena por nombre.
func (uc *CustomerUseCase) Search(ctx context.Context, userID string, in dto.CustomerSearch) ([]*dto.CustomerResponse, error) {
	sortBy := strings.ToLower(strings.TrimSpace(in.SortBy))
	if !customerSortColumns[sortBy] {
		sortBy = "name"
	}
	var list []*entity.Customer
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		var err error
		list, err = customers.List(userID, repository.CustomerFilter{
			Search:   in.Term,
			SortBy:   sortBy,
			SortDesc: in.SortDesc,
		})
		return err
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "customer.search", err)
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// Create valida y persiste un nuevo cliente.
func (uc *CustomerUseCase) Create(ctx context.Context, userID string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	in = trimCustomer(in)
	if ok, fields := validation.ValidateCustomerData(customerData(in)); !ok {
		return nil, &validation.Error{Fields: fields}
	}
	now := uc.now().UTC()
	customer := &entity.Customer{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		return customers.Create(customer)
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "customer.create", err)
	}
	uc.log.Info().Str("user_id", userID).Str("customer_id", customer.ID).Msg("cliente creado")
	return toCustomerResponse(customer), nil
}

// Get devuelve un cliente del usuario o domain.ErrNotFound.
func (uc *CustomerUseCase) Get(ctx context.Context, userID, customerID string) (*dto.CustomerResponse, error) {
	var customer *entity.Customer
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		var err error
		customer, err = customers.GetByID(userID, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "customer.get", err)
	}
	return toCustomerResponse(customer), nil
}

// Update reemplaza nombre, email, teléfono, dirección y notas.
func (uc *CustomerUseCase) Update(ctx context.Context, userID, customerID string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	in = trimCustomer(in)
	if ok, fields := validation.ValidateCustomerData(customerData(in)); !ok {
		return nil, &validation.Error{Fields: fields}
	}
	var customer *entity.Customer
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		var err error
		customer, err = customers.GetByID(userID, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		customer.Name = in.Name
		customer.Email = in.Email
		customer.Phone = in.Phone
		customer.Address = in.Address
		customer.Notes = in.Notes
		customer.UpdatedAt = uc.now().UTC()
		return customers.Update(customer)
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "customer.update", err)
	}
	return toCustomerResponse(customer), nil
}

// Delete elimina el cliente si no tiene facturas (domain.ErrCustomerHasInvoices en caso contrario).
func (uc *CustomerUseCase) Delete(ctx context.Context, userID, customerID string) error {
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		customer, err := customers.GetByID(userID, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		n, err := invoices.CountByCustomer(customerID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrCustomerHasInvoices
		}
		return customers.Delete(userID, customerID)
	})
	if err != nil {
		return logUnexpected(uc.log, "customer.delete", err)
	}
	uc.log.Info().Str("user_id", userID).Str("customer_id", customerID).Msg("cliente eliminado")
	return nil
}

// Stats cantidad de facturas y total facturado del cliente (ceros si no tiene facturas).
func (uc *CustomerUseCase) Stats(ctx context.Context, userID, customerID string) (*dto.CustomerStatsResponse, error) {
	var stats repository.CustomerStats
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		customer, err := customers.GetByID(userID, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrNotFound
		}
		stats, err = customers.Stats(userID, customerID)
		return err
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "customer.stats", err)
	}
	return &dto.CustomerStatsResponse{
		CustomerID:   customerID,
		InvoiceCount: stats.InvoiceCount,
		TotalBilled:  stats.TotalBilled,
	}, nil
}

// Count cantidad de clientes del usuario.
func (uc *CustomerUseCase) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, _ repository.InvoiceRepository) error {
		var err error
		n, err = customers.Count(userID)
		return err
	})
	if err != nil {
		return 0, logUnexpected(uc.log, "customer.count", err)
	}
	return n, nil
}

func trimCustomer(in dto.CustomerRequest) dto.CustomerRequest {
	return dto.CustomerRequest{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Notes:   strings.TrimSpace(in.Notes),
	}
}

func customerData(in dto.CustomerRequest) validation.CustomerData {
	return validation.CustomerData{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
		Notes:   in.Notes,
	}
}
