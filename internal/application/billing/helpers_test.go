package billing_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/infrastructure/database"
	"github.com/jhoicas/taller-facturacion/pkg/config"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

// fixedNow 15/06/2024 10:30 UTC.
var fixedNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type testEnv struct {
	gw *database.Gateway
	tx *database.TxRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "billing.db")
	gw, err := database.Open(context.Background(), config.DBConfig{DatabaseURL: "sqlite:///" + path}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, gw.Migrate(context.Background()))
	t.Cleanup(func() { _ = gw.Close() })
	return &testEnv{gw: gw, tx: database.NewTxRunner(gw)}
}

func (e *testEnv) user(t *testing.T, email string) string {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{ID: uuid.New().String(), Email: email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, database.NewUserRepository(e.gw.DB()).Create(u))
	return u.ID
}

func strPtr(s string) *string { return &s }
