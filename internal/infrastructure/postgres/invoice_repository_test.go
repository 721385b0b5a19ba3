package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
	"github.com/jhoicas/invoice-lifecycle/internal/infrastructure/postgres"
	"github.com/jhoicas/invoice-lifecycle/pkg/config"
)

// Requiere una base PostgreSQL real: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func newTestPool(t *testing.T) (*postgres.TxRunner, *postgres.InvoiceRepo) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return postgres.NewTxRunner(pool), postgres.NewInvoiceRepository(pool)
}

func TestInvoiceRepo_Postgres(t *testing.T) {
	runner, repo := newTestPool(t)
	ctx := context.Background()

	company := "c-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	inv := entity.NewDraftInvoice(uuid.NewString(), company, "COP", now)
	label := "Ventas"
	inv.LineItems = []entity.LineItem{{
		ID:                "l1",
		Quantity:          decimal.RequireFromString("2"),
		TaxPercent:        decimal.RequireFromString("10"),
		UnitPriceTaxExcl:  decimal.RequireFromString("100"),
		UnitPriceTaxIncl:  decimal.RequireFromString("110"),
		TotalPriceTaxExcl: decimal.RequireFromString("200"),
		TotalPriceTaxIncl: decimal.RequireFromString("220"),
		LineItemTags:      []entity.Tag{{Dimension: "centro", Value: "v", Label: &label}},
	}}
	inv.TotalPriceTaxExcl = decimal.RequireFromString("200")
	inv.TotalPriceTaxIncl = decimal.RequireFromString("220")
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StatusDraft, got.Status)
	require.Len(t, got.LineItems, 1)
	assert.True(t, got.LineItems[0].UnitPriceTaxIncl.Equal(decimal.RequireFromString("110")))
	assert.Equal(t, "Ventas", *got.LineItems[0].LineItemTags[0].Label)
	assert.True(t, got.TotalPriceTaxIncl.Equal(decimal.RequireFromString("220")))

	err = runner.RunInvoice(ctx, func(tx repository.InvoiceRepository) error {
		locked, err := tx.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		locked.Status = entity.StatusIssued
		locked.InvoiceNo = "F-1"
		locked.Revision = 1
		if err := tx.Update(ctx, locked); err != nil {
			return err
		}
		return tx.AppendOperation(ctx, &entity.Operation{
			InvoiceID: inv.ID, Revision: 1, Action: "issue", Payload: []byte(`{"invoice_no":"F-1"}`), CreatedAt: now,
		})
	})
	require.NoError(t, err)

	list, err := repo.ListByCompany(ctx, company, entity.StatusIssued, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "F-1", list[0].InvoiceNo)

	ops, err := repo.ListOperations(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.JSONEq(t, `{"invoice_no":"F-1"}`, string(ops[0].Payload))

	err = runner.RunInvoice(ctx, func(tx repository.InvoiceRepository) error {
		return tx.AppendOperation(ctx, &entity.Operation{InvoiceID: inv.ID, Revision: 1, Action: "issue", CreatedAt: now})
	})
	assert.Error(t, err, "revisión duplicada")

	missing, err := repo.GetByID(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
