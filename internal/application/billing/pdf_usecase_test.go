package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/workflow"
)

type fakePDF struct{ calls int }

func (f *fakePDF) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice) ([]byte, error) {
	f.calls++
	return []byte("%PDF-" + inv.InvoiceNo), nil
}

func TestDownloadInvoicePDF(t *testing.T) {
	f := newFixture(t)
	f.create(t, "inv-1")
	gen := &fakePDF{}
	uc := billing.NewPDFUseCase(f.store.Repository(), gen)
	ctx := context.Background()

	_, _, err := uc.DownloadInvoicePDF(ctx, "c1", "inv-1")
	require.ErrorIs(t, err, domain.ErrInvalidInput, "DRAFT no tiene número")

	f.apply(t, "inv-1", &workflow.IssueInput{InvoiceNo: "F-7", DateIssued: "2024-03-01"})

	_, _, err = uc.DownloadInvoicePDF(ctx, "c2", "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = uc.DownloadInvoicePDF(ctx, "c1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, name, err := uc.DownloadInvoicePDF(ctx, "c1", "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "factura_F-7.pdf", name)
	assert.Equal(t, []byte("%PDF-F-7"), out)
	assert.Equal(t, 1, gen.calls)
}

func TestDownloadInvoicePDF_NombreSeguro(t *testing.T) {
	f := newFixture(t)
	f.create(t, "inv-1")
	f.apply(t, "inv-1", &workflow.IssueInput{InvoiceNo: `F"7/ñ;x`, DateIssued: "2024-03-01"})
	uc := billing.NewPDFUseCase(f.store.Repository(), &fakePDF{})

	_, name, err := uc.DownloadInvoicePDF(context.Background(), "c1", "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "factura_F_7___x.pdf", name)
}
