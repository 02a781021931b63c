package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain"
	domainbilling "github.com/jhoicas/taller-facturacion/internal/domain/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
	"github.com/jhoicas/taller-facturacion/internal/domain/validation"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

const (
	defaultRecentLimit  = 10
	defaultPerPage      = 10
	maxPerPage          = 100
	invoiceNumberPrefix = "INV-"
)

// InvoiceUseCase casos de uso de facturas: CRUD, listados paginados y métricas.
type InvoiceUseCase struct {
	tx  TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewInvoiceUseCase construye el caso de uso con el reloj del sistema.
func NewInvoiceUseCase(tx TxRunner, log *logger.Logger) *InvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{tx: tx, log: log, now: time.Now}
}

// WithClock reemplaza el reloj usado para "hoy" y las marcas de tiempo.
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// today fecha actual en UTC a las 00:00.
func (uc *InvoiceUseCase) today() time.Time {
	return dateOnly(uc.now())
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

// Recent últimas facturas creadas, con el cliente cargado.
func (uc *InvoiceUseCase) Recent(ctx context.Context, userID string, limit int) ([]dto.InvoiceResponse, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var list []*entity.Invoice
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		list, err = invoices.Recent(userID, limit)
		return err
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "invoice.recent", err)
	}
	return toInvoiceResponses(list), nil
}

// Count cantidad de facturas del usuario.
func (uc *InvoiceUseCase) Count(ctx context.Context, userID string) (int64, error) {
	return uc.count(ctx, "invoice.count", func(invoices repository.InvoiceRepository) (int64, error) {
		return invoices.Count(userID)
	})
}

// OverdueCount facturas en borrador o enviadas cuyo vencimiento ya pasó.
func (uc *InvoiceUseCase) OverdueCount(ctx context.Context, userID string) (int64, error) {
	today := uc.today()
	return uc.count(ctx, "invoice.overdue_count", func(invoices repository.InvoiceRepository) (int64, error) {
		return invoices.CountDueBefore(userID, today, entity.InvoiceStatusSent, entity.InvoiceStatusDraft)
	})
}

// PendingCount facturas en borrador o enviadas que vencen hoy o después.
func (uc *InvoiceUseCase) PendingCount(ctx context.Context, userID string) (int64, error) {
	today := uc.today()
	return uc.count(ctx, "invoice.pending_count", func(invoices repository.InvoiceRepository) (int64, error) {
		return invoices.CountDueFrom(userID, today, entity.InvoiceStatusDraft, entity.InvoiceStatusSent)
	})
}

func (uc *InvoiceUseCase) count(ctx context.Context, op string, fn func(repository.InvoiceRepository) (int64, error)) (int64, error) {
	var n int64
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		n, err = fn(invoices)
		return err
	})
	if err != nil {
		return 0, logUnexpected(uc.log, op, err)
	}
	return n, nil
}

// TotalRevenue suma de los totales de las facturas pagadas.
func (uc *InvoiceUseCase) TotalRevenue(ctx context.Context, userID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		sum, err = invoices.SumTotalByStatus(userID, entity.InvoiceStatusPaid)
		return err
	})
	if err != nil {
		return decimal.Zero, logUnexpected(uc.log, "invoice.total_revenue", err)
	}
	return sum, nil
}

// List página de facturas. TotalPages = max(1, ceil(total/per_page)); una página fuera de rango viene vacía.
func (uc *InvoiceUseCase) List(ctx context.Context, userID string, in dto.InvoiceListRequest) (*dto.InvoicePage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	perPage := in.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	status := strings.TrimSpace(in.Status)
	if status != "" && !entity.ValidInvoiceStatus(status) {
		return nil, validation.NewError("status", "Estado de factura desconocido")
	}

	var (
		list  []*entity.Invoice
		total int64
	)
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		list, total, err = invoices.List(userID, repository.InvoiceFilter{Search: in.Search, Status: status}, perPage, pageOffset(page, perPage))
		return err
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "invoice.list", err)
	}
	return &dto.InvoicePage{
		Items:      toInvoiceResponses(list),
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: TotalPages(total, perPage),
	}, nil
}

// pageOffset (page-1)*perPage saturado en math.MaxInt: una página enorme queda fuera de rango
// en lugar de desbordar hacia un offset negativo.
func pageOffset(page, perPage int) int {
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// TotalPages ceil(total/perPage) con mínimo 1.
func TotalPages(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Get devuelve una factura del usuario o domain.ErrNotFound.
func (uc *InvoiceUseCase) Get(ctx context.Context, userID, invoiceID string) (*dto.InvoiceResponse, error) {
	return uc.getOne(ctx, "invoice.get", func(invoices repository.InvoiceRepository) (*entity.Invoice, error) {
		return invoices.GetByID(userID, invoiceID)
	})
}

// GetByNumber busca por número entre las facturas del usuario.
func (uc *InvoiceUseCase) GetByNumber(ctx context.Context, userID, number string) (*dto.InvoiceResponse, error) {
	number = strings.TrimSpace(number)
	return uc.getOne(ctx, "invoice.get_by_number", func(invoices repository.InvoiceRepository) (*entity.Invoice, error) {
		return invoices.GetByNumber(userID, number)
	})
}

func (uc *InvoiceUseCase) getOne(ctx context.Context, op string, fn func(repository.InvoiceRepository) (*entity.Invoice, error)) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		inv, err = fn(invoices)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, logUnexpected(uc.log, op, err)
	}
	out := ToInvoiceResponse(inv)
	return &out, nil
}

// ── Escrituras ───────────────────────────────────────────────────────────────

// Create crea la factura para el cliente indicado por nombre.
//
// Orden de validación:
//  1. el cliente existe entre los del usuario (domain.ErrCustomerNotFound)
//  2. número propio o generado INV-<ULID>
//  3. el número no existe en todo el sistema (domain.ErrInvoiceNumberExists)
//  4. vencimiento >= emisión (domain.ErrDueBeforeIssued)
//  5. total calculado desde las líneas
func (uc *InvoiceUseCase) Create(ctx context.Context, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, validation.NewError("customer_name", "El cliente es obligatorio")
	}
	issued := uc.today()
	if strings.TrimSpace(in.IssuedDate) != "" {
		d, err := parseDate("issued_date", in.IssuedDate)
		if err != nil {
			return nil, err
		}
		issued = d
	}
	if strings.TrimSpace(in.DueDate) == "" {
		return nil, validation.NewError("due_date", "La fecha de vencimiento es obligatoria")
	}
	due, err := parseDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}
	status, err := statusOrDefault(in.Status, entity.InvoiceStatusDraft)
	if err != nil {
		return nil, err
	}
	template, err := templateOrDefault(in.Template, entity.TemplateStandard)
	if err != nil {
		return nil, err
	}
	items, calc, err := normalizeLineItems(in.LineItems)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	inv := &entity.Invoice{
		ID:         uuid.New().String(),
		UserID:     userID,
		IssuedDate: issued,
		DueDate:    due,
		LineItems:  items,
		Total:      calc.Total,
		Template:   template,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		customer, err := customers.GetByName(userID, name)
		if err != nil {
			return err
		}
		if customer == nil {
			return fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, name)
		}
		inv.CustomerID = customer.ID
		inv.Customer = customer

		inv.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
		if inv.InvoiceNumber == "" {
			inv.InvoiceNumber = NewInvoiceNumber(now)
		}
		exists, err := invoices.NumberExists(inv.InvoiceNumber)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrInvoiceNumberExists, inv.InvoiceNumber)
		}
		if inv.DueDate.Before(inv.IssuedDate) {
			return domain.ErrDueBeforeIssued
		}
		return invoices.Create(inv)
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "invoice.create", err)
	}
	if calc.Skipped > 0 {
		uc.log.Warn().Str("invoice_number", inv.InvoiceNumber).Int("skipped", calc.Skipped).Msg("líneas ilegibles excluidas del total")
	}
	uc.log.Info().Str("user_id", userID).Str("invoice_number", inv.InvoiceNumber).Str("total", inv.Total.StringFixed(2)).Msg("factura creada")
	out := ToInvoiceResponse(inv)
	return &out, nil
}

// Update aplica los campos presentes. El total solo se recalcula si vienen líneas.
func (uc *InvoiceUseCase) Update(ctx context.Context, userID, invoiceID string, in dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	var (
		newIssued, newDue *time.Time
		newItems          json.RawMessage
		calc              domainbilling.Result
	)
	if in.IssuedDate != nil {
		d, err := parseDate("issued_date", *in.IssuedDate)
		if err != nil {
			return nil, err
		}
		newIssued = &d
	}
	if in.DueDate != nil {
		d, err := parseDate("due_date", *in.DueDate)
		if err != nil {
			return nil, err
		}
		newDue = &d
	}
	if len(in.LineItems) > 0 && !bytes.Equal(bytes.TrimSpace(in.LineItems), []byte("null")) {
		var err error
		newItems, calc, err = normalizeLineItems(in.LineItems)
		if err != nil {
			return nil, err
		}
	}
	if in.Status != nil && !entity.ValidInvoiceStatus(strings.TrimSpace(*in.Status)) {
		return nil, validation.NewError("status", "Estado de factura desconocido")
	}
	if in.Template != nil {
		if _, err := templateOrDefault(*in.Template, ""); err != nil {
			return nil, err
		}
	}

	var inv *entity.Invoice
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		inv, err = invoices.GetByID(userID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}

		if in.CustomerName != nil {
			name := strings.TrimSpace(*in.CustomerName)
			customer, err := customers.GetByName(userID, name)
			if err != nil {
				return err
			}
			if customer == nil {
				return fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, name)
			}
			inv.CustomerID = customer.ID
			inv.Customer = customer
		}
		if in.InvoiceNumber != nil {
			number := strings.TrimSpace(*in.InvoiceNumber)
			if number == "" {
				return validation.NewError("invoice_number", "El número de factura no puede quedar vacío")
			}
			if number != inv.InvoiceNumber {
				exists, err := invoices.NumberExists(number)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("%w: %s", domain.ErrInvoiceNumberExists, number)
				}
				inv.InvoiceNumber = number
			}
		}
		if newIssued != nil {
			inv.IssuedDate = *newIssued
		}
		if newDue != nil {
			inv.DueDate = *newDue
		}
		if inv.DueDate.Before(inv.IssuedDate) {
			return domain.ErrDueBeforeIssued
		}
		if newItems != nil {
			inv.LineItems = newItems
			inv.Total = calc.Total
		}
		if in.Status != nil {
			inv.Status = strings.TrimSpace(*in.Status)
		}
		if in.Template != nil {
			inv.Template = strings.TrimSpace(*in.Template)
		}
		inv.UpdatedAt = uc.now().UTC()
		return invoices.Update(inv)
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "invoice.update", err)
	}
	out := ToInvoiceResponse(inv)
	return &out, nil
}

// Delete elimina la factura del usuario.
func (uc *InvoiceUseCase) Delete(ctx context.Context, userID, invoiceID string) error {
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, _ repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		return invoices.Delete(userID, invoiceID)
	})
	if err != nil {
		return logUnexpected(uc.log, "invoice.delete", err)
	}
	uc.log.Info().Str("user_id", userID).Str("invoice_id", invoiceID).Msg("factura eliminada")
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// NewInvoiceNumber genera un número ordenable por tiempo: INV-<ULID>.
func NewInvoiceNumber(t time.Time) string {
	return invoiceNumberPrefix + ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(dto.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, validation.NewError(field, "Fecha inválida, use el formato AAAA-MM-DD")
	}
	return d.UTC(), nil
}

func statusOrDefault(s, def string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if !entity.ValidInvoiceStatus(s) {
		return "", validation.NewError("status", "Estado de factura desconocido")
	}
	return s, nil
}

func templateOrDefault(s, def string) (string, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		if def == "" {
			return "", validation.NewError("template", "La plantilla no puede quedar vacía")
		}
		return def, nil
	case entity.TemplateStandard, entity.TemplateCompact:
		return s, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, s)
}

// normalizeLineItems calcula el total y devuelve el JSON compactado tal como se guarda.
func normalizeLineItems(raw json.RawMessage) (json.RawMessage, domainbilling.Result, error) {
	calc, err := domainbilling.Calculate(raw)
	if err != nil {
		return nil, calc, validation.NewError("line_items", "Las líneas deben ser un arreglo JSON")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("[]"), calc, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, calc, validation.NewError("line_items", "Las líneas deben ser un arreglo JSON")
	}
	return buf.Bytes(), calc, nil
}
