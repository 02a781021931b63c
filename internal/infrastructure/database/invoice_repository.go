package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con sesión o tx).
type InvoiceRepo struct {
	db *gorm.DB
}

// NewInvoiceRepository construye el adaptador.
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepo {
	return &InvoiceRepo{db: db}
}

// Create persiste una nueva factura. Un número repetido devuelve domain.ErrInvoiceNumberExists.
func (r *InvoiceRepo) Create(invoice *entity.Invoice) error {
	if err := r.db.Omit(clause.Associations).Create(toInvoiceModel(invoice)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvoiceNumberExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrCustomerNotFound
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update reescribe los campos mutables de la factura.
func (r *InvoiceRepo) Update(invoice *entity.Invoice) error {
	m := toInvoiceModel(invoice)
	res := r.db.Model(&invoiceModel{}).
		Where("id = ? AND user_id = ?", invoice.ID, invoice.UserID).
		Updates(map[string]interface{}{
			"customer_id":    m.CustomerID,
			"invoice_number": m.InvoiceNumber,
			"number_search":  m.NumberSearch,
			"issued_date":    m.IssuedDate,
			"due_date":       m.DueDate,
			"line_items":     m.LineItems,
			"total":          m.Total,
			"template":       m.Template,
			"status":         m.Status,
			"updated_at":     m.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrInvoiceNumberExists
		}
		if isForeignKeyViolation(res.Error) {
			return domain.ErrCustomerNotFound
		}
		return fmt.Errorf("update invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina una factura del usuario.
func (r *InvoiceRepo) Delete(userID, id string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&invoiceModel{})
	if res.Error != nil {
		return fmt.Errorf("delete invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una factura del usuario con su cliente.
func (r *InvoiceRepo) GetByID(userID, id string) (*entity.Invoice, error) {
	return r.takeOne("get invoice", "invoices.id = ? AND invoices.user_id = ?", id, userID)
}

// GetByNumber obtiene una factura del usuario por número.
func (r *InvoiceRepo) GetByNumber(userID, number string) (*entity.Invoice, error) {
	return r.takeOne("get invoice by number", "invoices.invoice_number = ? AND invoices.user_id = ?", number, userID)
}

func (r *InvoiceRepo) takeOne(op, where string, args ...interface{}) (*entity.Invoice, error) {
	var m invoiceModel
	if err := r.db.Preload("Customer").Where(where, args...).Take(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m.toEntity(), nil
}

// NumberExists indica si el número ya está usado por cualquier usuario.
func (r *InvoiceRepo) NumberExists(number string) (bool, error) {
	var n int64
	if err := r.db.Model(&invoiceModel{}).Where("invoice_number = ?", number).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return n > 0, nil
}

// List devuelve una página de facturas y el total de coincidencias, de la más nueva a la más vieja.
func (r *InvoiceRepo) List(userID string, filter repository.InvoiceFilter, limit, offset int) ([]*entity.Invoice, int64, error) {
	base := func() *gorm.DB {
		q := r.db.Model(&invoiceModel{}).
			Joins("JOIN customers ON customers.id = invoices.customer_id").
			Where("invoices.user_id = ?", userID)
		if filter.Status != "" {
			q = q.Where("invoices.status = ?", filter.Status)
		}
		if strings.TrimSpace(filter.Search) != "" {
			like := likePattern(filter.Search)
			q = q.Where("(invoices.number_search LIKE ?"+likeEscape+" OR customers.name_search LIKE ?"+likeEscape+")", like, like)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	if total == 0 || int64(offset) >= total {
		return []*entity.Invoice{}, total, nil
	}

	var rows []invoiceModel
	err := base().
		Select("invoices.*").
		Preload("Customer").
		Order("invoices.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return invoicesToEntities(rows), total, nil
}

// Recent últimas facturas creadas por el usuario.
func (r *InvoiceRepo) Recent(userID string, limit int) ([]*entity.Invoice, error) {
	var rows []invoiceModel
	err := r.db.Preload("Customer").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recent invoices: %w", err)
	}
	return invoicesToEntities(rows), nil
}

// Count cuenta las facturas del usuario.
func (r *InvoiceRepo) Count(userID string) (int64, error) {
	var n int64
	if err := r.db.Model(&invoiceModel{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// CountByCustomer cuenta las facturas que referencian al cliente.
func (r *InvoiceRepo) CountByCustomer(customerID string) (int64, error) {
	var n int64
	if err := r.db.Model(&invoiceModel{}).Where("customer_id = ?", customerID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count invoices by customer: %w", err)
	}
	return n, nil
}

// SumTotalByStatus suma los totales de las facturas del usuario en los estados dados.
func (r *InvoiceRepo) SumTotalByStatus(userID string, statuses ...string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.Model(&invoiceModel{}).
		Select("COALESCE(SUM(total), 0)").
		Where("user_id = ? AND status IN ?", userID, statuses).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum invoices: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

// CountDueBefore vencidas: due_date < date.
func (r *InvoiceRepo) CountDueBefore(userID string, date time.Time, statuses ...string) (int64, error) {
	return r.countDue(userID, "due_date < ?", date, statuses)
}

// CountDueFrom pendientes: due_date >= date.
func (r *InvoiceRepo) CountDueFrom(userID string, date time.Time, statuses ...string) (int64, error) {
	return r.countDue(userID, "due_date >= ?", date, statuses)
}

func (r *InvoiceRepo) countDue(userID, cond string, date time.Time, statuses []string) (int64, error) {
	var n int64
	err := r.db.Model(&invoiceModel{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Where(cond, date.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count invoices by due date: %w", err)
	}
	return n, nil
}
