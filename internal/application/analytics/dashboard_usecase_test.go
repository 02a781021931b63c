package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-facturacion/internal/application/analytics"
	"github.com/jhoicas/taller-facturacion/internal/application/billing"
	"github.com/jhoicas/taller-facturacion/internal/application/dto"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/database"
	"github.com/jhoicas/taller-facturacion/pkg/config"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestGetSummary_DatosReales(t *testing.T) {
	ctx := context.Background()
	gw, err := database.Open(ctx, config.DBConfig{DatabaseURL: "sqlite:///" + filepath.Join(t.TempDir(), "dash.db")}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, gw.Migrate(ctx))
	t.Cleanup(func() { _ = gw.Close() })

	now := time.Now().UTC()
	user := &entity.User{ID: uuid.New().String(), Email: "taller@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, database.NewUserRepository(gw.DB()).Create(user))

	tx := database.NewTxRunner(gw)
	customers := billing.NewCustomerUseCase(tx, logger.Nop())
	invoices := billing.NewInvoiceUseCase(tx, logger.Nop()).WithClock(clock)

	for _, name := range []string{"Acme", "Beta"} {
		_, err := customers.Create(ctx, user.ID, dto.CustomerRequest{Name: name})
		require.NoError(t, err)
	}
	items := json.RawMessage(`[{"hours":2,"rate":50}]`)
	for _, in := range []dto.CreateInvoiceRequest{
		{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-10", Status: entity.InvoiceStatusPaid, LineItems: items},
		{CustomerName: "Acme", IssuedDate: "2024-06-01", DueDate: "2024-06-10", Status: entity.InvoiceStatusSent, LineItems: items},
		{CustomerName: "Beta", IssuedDate: "2024-06-01", DueDate: "2024-07-10", LineItems: items},
	} {
		_, err := invoices.Create(ctx, user.ID, in)
		require.NoError(t, err)
	}

	summary, err := analytics.NewDashboardUseCase(invoices, customers).WithClock(clock).GetSummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.InvoiceCount)
	assert.Equal(t, int64(2), summary.CustomerCount)
	assert.Equal(t, "100.00", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, int64(1), summary.OverdueCount)
	assert.Equal(t, int64(1), summary.PendingCount)
	assert.Len(t, summary.RecentInvoices, 3)
	assert.Equal(t, "Junio 2024", summary.DateLabel)
}

type failingInvoices struct{ err error }

func (f failingInvoices) Count(context.Context, string) (int64, error) { return 1, nil }
func (f failingInvoices) TotalRevenue(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, f.err
}
func (f failingInvoices) OverdueCount(context.Context, string) (int64, error) { return 0, nil }
func (f failingInvoices) PendingCount(context.Context, string) (int64, error) { return 0, nil }
func (f failingInvoices) Recent(context.Context, string, int) ([]dto.InvoiceResponse, error) {
	return nil, nil
}

type fixedCustomers int64

func (c fixedCustomers) Count(context.Context, string) (int64, error) { return int64(c), nil }

func TestGetSummary_PropagaError(t *testing.T) {
	boom := errors.New("base caída")
	_, err := analytics.NewDashboardUseCase(failingInvoices{err: boom}, fixedCustomers(2)).GetSummary(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ingresos")
}
