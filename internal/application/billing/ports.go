package billing

import (
	"context"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
)

// InvoiceTxRunner ejecuta fn dentro de una transacción con el repo de facturas atado a ella.
// Si fn retorna error no se persiste nada.
type InvoiceTxRunner interface {
	RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}

// InvoicePDFGenerator genera la representación gráfica de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice) ([]byte, error)
}

// ActionRecorder recibe el resultado de cada acción (métricas).
type ActionRecorder interface {
	ActionApplied(action string, from, to entity.Status)
	ActionRejected(action string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ActionApplied(string, entity.Status, entity.Status) {}
func (nopRecorder) ActionRejected(string, error)                       {}
