// import_customers carga clientes desde un CSV en la cuenta de un usuario.
//
// Uso: go run ./cmd/import_customers -email taller@example.com -password secreto clientes.csv
// Columnas: name,email,phone,address,notes (solo name es obligatoria). UTF-8 o ISO-8859-1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jhoicas/taller-facturacion/internal/application/auth"
	"github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain/validation"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/csvimport"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/database"
	"github.com/jhoicas/taller-facturacion/pkg/config"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	email := flag.String("email", "", "email de la cuenta")
	password := flag.String("password", "", "contraseña de la cuenta")
	flag.Parse()
	if *email == "" || *password == "" || flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_customers -email <email> -password <clave> archivo.csv")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		return 1
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		return 1
	}
	defer f.Close()
	rows, err := csvimport.ReadCustomers(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		return 1
	}

	ctx := context.Background()
	gw, err := database.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Error().Err(err).Msg("conexión a la base de datos")
		return 1
	}
	defer gw.Close()
	if err := gw.Migrate(ctx); err != nil {
		log.Error().Err(err).Msg("migración")
		return 1
	}

	tx := database.NewTxRunner(gw)
	session := auth.NewSession(auth.NewAuthUseCase(tx, auth.JWTConfig{}, log))
	user := session.Login(ctx, *email, *password)
	if user == nil {
		fmt.Fprintln(os.Stderr, "Credenciales inválidas")
		return 1
	}
	defer session.Logout()

	customers := billing.NewCustomerUseCase(tx, log)
	created, rejected := 0, 0
	for _, row := range rows {
		if _, err := customers.Create(ctx, user.ID, row.Customer); err != nil {
			rejected++
			fmt.Fprintf(os.Stderr, "línea %d (%s): %s\n", row.Line, row.Customer.Name, describe(err))
			continue
		}
		created++
	}
	fmt.Printf("Clientes creados: %d, rechazados: %d\n", created, rejected)
	if rejected > 0 {
		return 1
	}
	return 0
}

func describe(err error) string {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return err.Error()
	}
	keys := make([]string, 0, len(verr.Fields))
	for k := range verr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, verr.Fields[k])
	}
	return strings.Join(parts, "; ")
}
