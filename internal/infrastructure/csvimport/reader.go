// Package csvimport lee clientes desde archivos CSV exportados por hojas de cálculo.
// Acepta UTF-8 (con o sin BOM) e ISO-8859-1.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/taller-facturacion/internal/application/dto"
)

// Columns columnas reconocidas en la cabecera. Solo name es obligatoria.
var Columns = []string{"name", "email", "phone", "address", "notes"}

// Row fila leída con su número de línea (la cabecera es la línea 1).
type Row struct {
	Line     int
	Customer dto.CustomerRequest
}

// ReadCustomers lee todas las filas. Las filas vacías se ignoran.
func ReadCustomers(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV vacío")
	}
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("la cabecera debe incluir la columna name")
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		c := dto.CustomerRequest{
			Name:    get("name"),
			Email:   get("email"),
			Phone:   get("phone"),
			Address: get("address"),
			Notes:   get("notes"),
		}
		if c == (dto.CustomerRequest{}) {
			continue
		}
		rows = append(rows, Row{Line: line, Customer: c})
	}
	return rows, nil
}
