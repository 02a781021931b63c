// Package billing contiene la regla de negocio del total de una factura.
//
//	línea = (horas × tarifa + repuestos) × (1 + impuesto/100)
//	total = Σ líneas, redondeado a 2 decimales al final
//
// Las líneas cuyo contenido numérico no se puede interpretar se omiten y se cuentan
// (Result.Skipped); nunca abortan el cálculo del resto de la factura.
package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/domain"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
)

// TotalPlaces decimales con los que se guarda el total (numeric(12,2)).
const TotalPlaces = 2

var errNotObject = errors.New("la línea no es un objeto JSON")

// Result resultado del cálculo sobre el JSON de líneas.
type Result struct {
	Items   []entity.LineItem
	Total   decimal.Decimal
	Skipped int
}

// Calculate interpreta el arreglo JSON de líneas y calcula el total.
// Solo devuelve error si el payload no es un arreglo JSON (vacío o null equivalen a sin líneas).
func Calculate(raw json.RawMessage) (Result, error) {
	res := Result{Items: []entity.LineItem{}, Total: decimal.Zero}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return res, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return res, fmt.Errorf("%w: line_items debe ser un arreglo JSON", domain.ErrInvalidInput)
	}
	for _, e := range elems {
		item, err := ParseLineItem(e)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}
	res.Total = Total(res.Items)
	return res, nil
}

// Total suma los importes de las líneas y redondea a TotalPlaces.
func Total(items []entity.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Amount())
	}
	return sum.Round(TotalPlaces)
}

// ParseLineItem interpreta un objeto {description, hours|quantity, rate, parts, tax}.
// Los campos ausentes o null valen 0; los números pueden venir como número JSON o como string numérico.
func ParseLineItem(raw json.RawMessage) (entity.LineItem, error) {
	var item entity.LineItem
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return item, errNotObject
	}

	if d, ok := fields["description"]; ok {
		// una descripción que no es string no afecta el total
		_ = json.Unmarshal(d, &item.Description)
	}

	hoursRaw, ok := fields["hours"]
	if !ok || isNull(hoursRaw) {
		hoursRaw = fields["quantity"] // compatibilidad con datos legados
	}

	var err error
	if item.Hours, err = parseAmount(hoursRaw); err != nil {
		return item, fmt.Errorf("hours: %w", err)
	}
	if item.Rate, err = parseAmount(fields["rate"]); err != nil {
		return item, fmt.Errorf("rate: %w", err)
	}
	if item.Parts, err = parseAmount(fields["parts"]); err != nil {
		return item, fmt.Errorf("parts: %w", err)
	}
	if item.Tax, err = parseAmount(fields["tax"]); err != nil {
		return item, fmt.Errorf("tax: %w", err)
	}
	return item, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || isNull(raw) {
		return decimal.Zero, nil
	}
	s := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return decimal.Zero, err
		}
		s = strings.TrimSpace(str)
	}
	return decimal.NewFromString(s)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
