package billing

import (
	"errors"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	domainbilling "github.com/jhoicas/taller-facturacion/internal/domain/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

var expectedErrors = []error{
	domain.ErrNotFound,
	domain.ErrInvalidInput,
	domain.ErrDuplicate,
	domain.ErrCustomerNotFound,
	domain.ErrCustomerHasInvoices,
	domain.ErrInvoiceNumberExists,
	domain.ErrDueBeforeIssued,
	domain.ErrTemplateNotFound,
}

// logUnexpected registra los errores de infraestructura; los de dominio los maneja el llamador.
func logUnexpected(log *logger.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return err
		}
	}
	log.Error().Err(err).Str("op", op).Msg("operación fallida")
	return err
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToInvoiceResponse arma la respuesta con las líneas decodificadas y su importe.
func ToInvoiceResponse(inv *entity.Invoice) dto.InvoiceResponse {
	out := dto.InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		IssuedDate:    inv.IssuedDate.Format(dto.DateLayout),
		DueDate:       inv.DueDate.Format(dto.DateLayout),
		Status:        inv.Status,
		Template:      inv.Template,
		Total:         inv.Total,
		LineItems:     []dto.LineItemResponse{},
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.Customer != nil {
		out.CustomerName = inv.Customer.Name
	}
	// Lo guardado ya pasó por Calculate al escribirse; aquí solo se decodifica.
	if res, err := domainbilling.Calculate(inv.LineItems); err == nil {
		out.SkippedLineItems = res.Skipped
		for _, it := range res.Items {
			out.LineItems = append(out.LineItems, dto.LineItemResponse{
				Description: it.Description,
				Hours:       it.Hours,
				Rate:        it.Rate,
				Parts:       it.Parts,
				Tax:         it.Tax,
				Amount:      it.Amount().Round(2),
			})
		}
	}
	return out
}

func toInvoiceResponses(list []*entity.Invoice) []dto.InvoiceResponse {
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, ToInvoiceResponse(inv))
	}
	return out
}
