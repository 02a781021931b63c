package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// isUniqueViolation verifica si un error es una violación de constraint único
// (PostgreSQL 23505, SQLite "UNIQUE constraint failed" o el error traducido por gorm).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

// isForeignKeyViolation PostgreSQL 23503 o SQLite "FOREIGN KEY constraint failed".
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// likeEscape acompaña a likePattern en las consultas: los comodines del término son literales.
const likeEscape = ` ESCAPE '\'`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// foldSearch normaliza texto para buscar sin distinguir mayúsculas (Unicode completo).
// SQLite solo pliega ASCII con LOWER(), por eso las columnas *_search se guardan ya plegadas
// y el término se pliega igual en Go.
func foldSearch(parts ...string) string {
	folded := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			folded = append(folded, cases.Fold().String(p))
		}
	}
	return strings.Join(folded, "\n")
}

// likePattern arma el patrón de subcadena sobre una columna *_search, con % y _ escapados.
func likePattern(term string) string {
	return "%" + likeReplacer.Replace(foldSearch(term)) + "%"
}

// notFound convierte gorm.ErrRecordNotFound en (nil, nil) como esperan los puertos.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
