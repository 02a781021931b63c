// Package database implementa los puertos de persistencia sobre gorm.
// El motor se elige a partir de la cadena de conexión: PostgreSQL (pgx) o SQLite.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jhoicas/taller-facturacion/pkg/config"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

// Motores soportados.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Gateway es el único punto de acceso a la base de datos del proceso.
// Se construye una vez en la raíz de composición (cmd/*) y se inyecta en los repositorios.
type Gateway struct {
	db      *gorm.DB
	pool    *pgxpool.Pool // nil en SQLite
	dialect string
	log     *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open abre la conexión según cfg.ConnectionString().
func Open(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*Gateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	dsn := cfg.ConnectionString()
	gcfg := &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	if strings.HasPrefix(dsn, "postgresql://") {
		return openPostgres(ctx, dsn, gcfg, log)
	}
	path, ok := SQLitePath(dsn)
	if !ok {
		return nil, fmt.Errorf("cadena de conexión no soportada: %q", redact(dsn))
	}
	return openSQLite(ctx, path, gcfg, log)
}

func openPostgres(ctx context.Context, dsn string, gcfg *gorm.Config, log *logger.Logger) (*Gateway, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Registrar codec para NUMERIC -> shopspring/decimal (todas las conexiones del pool).
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gcfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	log.Info().Str("dialect", DialectPostgres).Str("host", poolConfig.ConnConfig.Host).Msg("base de datos conectada")
	return &Gateway{db: db, pool: pool, dialect: DialectPostgres, log: log}, nil
}

func openSQLite(ctx context.Context, path string, gcfg *gorm.Config, log *logger.Logger) (*Gateway, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		dsn = path
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := gorm.Open(sqlite.Open(dsn+sep+sqlitePragmas), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite sql.DB: %w", err)
	}
	// Una sola conexión: SQLite serializa escrituras y ":memory:" es por conexión.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	log.Info().Str("dialect", DialectSQLite).Str("path", path).Msg("base de datos abierta")
	return &Gateway{db: db, dialect: DialectSQLite, log: log}, nil
}

// SQLitePath interpreta una URL sqlite:/// (ruta relativa; sqlite://// para absoluta),
// ":memory:" o una ruta a archivo .db/.sqlite.
func SQLitePath(dsn string) (string, bool) {
	switch {
	case dsn == ":memory:":
		return dsn, true
	case strings.HasPrefix(dsn, "sqlite:///"):
		p := strings.TrimPrefix(dsn, "sqlite:///")
		if p == "" {
			return ":memory:", true
		}
		return p, true
	case strings.HasPrefix(dsn, "sqlite://"):
		p := strings.TrimPrefix(dsn, "sqlite://")
		if p == "" {
			return ":memory:", true
		}
		return p, true
	case strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"), strings.HasSuffix(dsn, ".sqlite3"):
		return dsn, true
	}
	return "", false
}

// DB expone la sesión gorm (sin transacción).
func (g *Gateway) DB() *gorm.DB { return g.db }

// Dialect devuelve DialectPostgres o DialectSQLite.
func (g *Gateway) Dialect() string { return g.dialect }

// Migrate crea o actualiza las tablas users, customers e invoices.
func (g *Gateway) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&userModel{}, &customerModel{}, &invoiceModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := backfillSearch(g.db.WithContext(ctx)); err != nil {
		return fmt.Errorf("backfill search columns: %w", err)
	}
	return nil
}

// backfillSearch completa las columnas *_search de filas creadas antes de que existieran.
func backfillSearch(db *gorm.DB) error {
	var customers []customerModel
	if err := db.Where("name_search = ''").Find(&customers).Error; err != nil {
		return err
	}
	for i := range customers {
		c := &customers[i]
		c.fillSearch()
		err := db.Model(&customerModel{}).Where("id = ?", c.ID).
			UpdateColumns(map[string]interface{}{"name_search": c.NameSearch, "search_text": c.SearchText}).Error
		if err != nil {
			return err
		}
	}

	var invoices []invoiceModel
	if err := db.Where("number_search = ''").Find(&invoices).Error; err != nil {
		return err
	}
	for i := range invoices {
		err := db.Model(&invoiceModel{}).Where("id = ?", invoices[i].ID).
			UpdateColumn("number_search", foldSearch(invoices[i].InvoiceNumber)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Ping verifica la conexión.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close libera las conexiones. Llamarlo más de una vez no tiene efecto.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		if sqlDB, err := g.db.DB(); err == nil {
			g.closeErr = sqlDB.Close()
		}
		if g.pool != nil {
			g.pool.Close()
		}
	})
	return g.closeErr
}

// redact oculta la contraseña de un DSN para los mensajes de error.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userInfo := dsn[scheme+3 : at]
	if i := strings.Index(userInfo, ":"); i >= 0 {
		return dsn[:scheme+3] + userInfo[:i] + ":***" + dsn[at:]
	}
	return dsn
}
