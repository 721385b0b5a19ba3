package repository

import (
	"context"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y su log de operaciones.
// GetByID y GetForUpdate devuelven (nil, nil) si la factura no existe.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	// Update reemplaza el estado completo de la factura (cabecera, líneas, etiquetas, pagos, rechazos).
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	// ListByCompany status vacío = todos los estados.
	ListByCompany(ctx context.Context, companyID string, status entity.Status, limit, offset int) ([]*entity.Invoice, error)
	AppendOperation(ctx context.Context, op *entity.Operation) error
	ListOperations(ctx context.Context, invoiceID string) ([]*entity.Operation, error)
}
