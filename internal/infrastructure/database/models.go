package database

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
)

// ── Modelos de persistencia ──────────────────────────────────────────────────
// Separados de las entidades para que el dominio no dependa de tags de gorm.

type userModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

type customerModel struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `gorm:"type:varchar(36);not null;index"`
	User      *userModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Name      string     `gorm:"type:varchar(100);not null;index"`
	Email     string     `gorm:"type:varchar(100)"`
	Phone     string     `gorm:"type:varchar(20)"`
	Address   string     `gorm:"type:text"`
	Notes     string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`

	// Columnas de búsqueda plegadas con foldSearch; se reescriben en cada alta o edición.
	NameSearch string `gorm:"type:varchar(255);not null;default:''"`
	SearchText string `gorm:"type:text;not null;default:''"`
}

func (m *customerModel) fillSearch() {
	m.NameSearch = foldSearch(m.Name)
	m.SearchText = foldSearch(m.Name, m.Email, m.Phone, m.Notes)
}

func (customerModel) TableName() string { return "customers" }

type invoiceModel struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)"`
	UserID        string          `gorm:"type:varchar(36);not null;index"`
	User          *userModel      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CustomerID    string          `gorm:"type:varchar(36);not null;index"`
	Customer      *customerModel  `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	InvoiceNumber string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	IssuedDate    time.Time       `gorm:"not null"`
	DueDate       time.Time       `gorm:"not null;index"`
	LineItems     datatypes.JSON  `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Template      string          `gorm:"type:varchar(50);not null;default:standard"`
	Status        string          `gorm:"type:varchar(20);not null;default:draft;index"`
	CreatedAt     time.Time       `gorm:"not null;index"`
	UpdatedAt     time.Time       `gorm:"not null"`

	NumberSearch string `gorm:"type:varchar(255);not null;default:''"`
}

func (invoiceModel) TableName() string { return "invoices" }

// ── Conversión modelo <-> entidad ────────────────────────────────────────────

func toUserModel(u *entity.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m *userModel) toEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func toCustomerModel(c *entity.Customer) *customerModel {
	m := &customerModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	m.fillSearch()
	return m
}

func (m *customerModel) toEntity() *entity.Customer {
	return &entity.Customer{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Address:   m.Address,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func toInvoiceModel(inv *entity.Invoice) *invoiceModel {
	items := inv.LineItems
	if len(items) == 0 {
		items = json.RawMessage("[]")
	}
	return &invoiceModel{
		ID:            inv.ID,
		UserID:        inv.UserID,
		CustomerID:    inv.CustomerID,
		InvoiceNumber: inv.InvoiceNumber,
		IssuedDate:    inv.IssuedDate,
		DueDate:       inv.DueDate,
		LineItems:     datatypes.JSON(items),
		Total:         inv.Total,
		Template:      inv.Template,
		Status:        inv.Status,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		NumberSearch:  foldSearch(inv.InvoiceNumber),
	}
}

func (m *invoiceModel) toEntity() *entity.Invoice {
	inv := &entity.Invoice{
		ID:            m.ID,
		UserID:        m.UserID,
		CustomerID:    m.CustomerID,
		InvoiceNumber: m.InvoiceNumber,
		IssuedDate:    m.IssuedDate.UTC(),
		DueDate:       m.DueDate.UTC(),
		LineItems:     json.RawMessage(m.LineItems),
		Total:         m.Total,
		Template:      m.Template,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
	if m.Customer != nil {
		inv.Customer = m.Customer.toEntity()
	}
	return inv
}

func invoicesToEntities(rows []invoiceModel) []*entity.Invoice {
	list := make([]*entity.Invoice, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].toEntity())
	}
	return list
}
