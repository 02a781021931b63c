package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Plantillas de PDF soportadas.
const (
	TemplateStandard = "standard"
	TemplateCompact  = "compact"
)

// ValidInvoiceStatus indica si s es uno de los estados conocidos.
func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice representa una factura con sus líneas (guardadas como JSON) y el total derivado.
type Invoice struct {
	ID            string
	UserID        string
	CustomerID    string
	Customer      *Customer // cargado junto con la factura en lecturas
	InvoiceNumber string
	IssuedDate    time.Time // solo fecha (UTC, 00:00)
	DueDate       time.Time // solo fecha (UTC, 00:00)
	LineItems     json.RawMessage
	Total         decimal.Decimal // siempre recalculado desde LineItems
	Template      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
