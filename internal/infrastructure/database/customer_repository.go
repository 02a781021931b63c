package database

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con sesión o tx).
type CustomerRepo struct {
	db *gorm.DB
}

// NewCustomerRepository construye el adaptador.
func NewCustomerRepository(db *gorm.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create persiste un nuevo cliente.
func (r *CustomerRepo) Create(customer *entity.Customer) error {
	if err := r.db.Omit(clause.Associations).Create(toCustomerModel(customer)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente del usuario por ID.
func (r *CustomerRepo) GetByID(userID, id string) (*entity.Customer, error) {
	var m customerModel
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Take(&m).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return m.toEntity(), nil
}

// GetByName busca por nombre exacto entre los clientes del usuario.
func (r *CustomerRepo) GetByName(userID, name string) (*entity.Customer, error) {
	var m customerModel
	err := r.db.Where("user_id = ? AND name = ?", userID, name).
		Order("created_at ASC").
		Take(&m).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by name: %w", err)
	}
	return m.toEntity(), nil
}

// List lista los clientes del usuario aplicando búsqueda y orden.
func (r *CustomerRepo) List(userID string, filter repository.CustomerFilter) ([]*entity.Customer, error) {
	q := r.db.Where("user_id = ?", userID)
	if strings.TrimSpace(filter.Search) != "" {
		q = q.Where("search_text LIKE ?"+likeEscape, likePattern(filter.Search))
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "name"
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: filter.SortDesc}).
		Order("id")

	var rows []customerModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	list := make([]*entity.Customer, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].toEntity())
	}
	return list, nil
}

// Count cuenta los clientes del usuario.
func (r *CustomerRepo) Count(userID string) (int64, error) {
	var n int64
	if err := r.db.Model(&customerModel{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Update actualiza los campos editables. Devuelve domain.ErrNotFound si no es del usuario.
func (r *CustomerRepo) Update(customer *entity.Customer) error {
	m := toCustomerModel(customer)
	res := r.db.Model(&customerModel{}).
		Where("id = ? AND user_id = ?", customer.ID, customer.UserID).
		Updates(map[string]interface{}{
			"name":        m.Name,
			"email":       m.Email,
			"phone":       m.Phone,
			"address":     m.Address,
			"notes":       m.Notes,
			"name_search": m.NameSearch,
			"search_text": m.SearchText,
			"updated_at":  m.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un cliente del usuario. La FK de invoices impide borrar clientes con facturas.
func (r *CustomerRepo) Delete(userID, id string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&customerModel{})
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return domain.ErrCustomerHasInvoices
		}
		return fmt.Errorf("delete customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats cantidad de facturas y total facturado del cliente.
func (r *CustomerRepo) Stats(userID, id string) (repository.CustomerStats, error) {
	stats := repository.CustomerStats{TotalBilled: decimal.Zero}
	var total decimal.NullDecimal
	row := r.db.Model(&invoiceModel{}).
		Select("COUNT(*), COALESCE(SUM(total), 0)").
		Where("customer_id = ? AND user_id = ?", id, userID).
		Row()
	if err := row.Scan(&stats.InvoiceCount, &total); err != nil {
		return stats, fmt.Errorf("customer stats: %w", err)
	}
	if total.Valid {
		stats.TotalBilled = total.Decimal.Round(2)
	}
	return stats, nil
}
