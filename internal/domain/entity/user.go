package entity

import "time"

// User representa al dueño de la cuenta (el taller). Es dueño de clientes y facturas.
type User struct {
	ID           string
	Email        string // normalizado: sin espacios y en minúsculas
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
