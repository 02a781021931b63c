package entity

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem representa una línea facturable: horas de mano de obra, tarifa, repuestos e impuesto (%).
type LineItem struct {
	Description string
	Hours       decimal.Decimal
	Rate        decimal.Decimal
	Parts       decimal.Decimal
	Tax         decimal.Decimal // porcentaje, ej. 8.5
}

// Amount = (Hours × Rate + Parts) × (1 + Tax/100), sin redondear.
func (li LineItem) Amount() decimal.Decimal {
	base := li.Hours.Mul(li.Rate).Add(li.Parts)
	return base.Mul(decimal.NewFromInt(1).Add(li.Tax.Div(hundred)))
}

// MarshalJSON escribe los montos como números JSON: {description, hours, rate, parts, tax}.
func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string      `json:"description"`
		Hours       json.Number `json:"hours"`
		Rate        json.Number `json:"rate"`
		Parts       json.Number `json:"parts"`
		Tax         json.Number `json:"tax"`
	}{
		Description: li.Description,
		Hours:       json.Number(li.Hours.String()),
		Rate:        json.Number(li.Rate.String()),
		Parts:       json.Number(li.Parts.String()),
		Tax:         json.Number(li.Tax.String()),
	})
}

// EncodeLineItems serializa las líneas al formato almacenado en invoices.line_items.
func EncodeLineItems(items ...LineItem) (json.RawMessage, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return b, nil
}
