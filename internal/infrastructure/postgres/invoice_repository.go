package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
// Líneas, etiquetas, pagos y rechazos se guardan como JSONB en la fila de la factura.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, status, invoice_no, date_issued, pay_after, closure_reason, currency,
	line_items, invoice_tags, payments, rejections,
	total_price_tax_excl, total_price_tax_incl, revision, created_at, updated_at`

// Create persiste una factura nueva.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.CompanyID, invoice.Status, invoice.InvoiceNo, invoice.DateIssued,
		invoice.PayAfter, invoice.ClosureReason, invoice.Currency,
		jsonArray(invoice.LineItems), jsonArray(invoice.InvoiceTags),
		jsonArray(invoice.Payments), jsonArray(invoice.Rejections),
		invoice.TotalPriceTaxExcl, invoice.TotalPriceTaxIncl, invoice.Revision,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice already exists: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// Update reemplaza el estado de la factura.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET status               = $2,
		    invoice_no           = $3,
		    date_issued          = $4,
		    pay_after            = $5,
		    closure_reason       = $6,
		    currency             = $7,
		    line_items           = $8,
		    invoice_tags         = $9,
		    payments             = $10,
		    rejections           = $11,
		    total_price_tax_excl = $12,
		    total_price_tax_incl = $13,
		    revision             = $14,
		    updated_at           = $15
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.Status, invoice.InvoiceNo, invoice.DateIssued, invoice.PayAfter,
		invoice.ClosureReason, invoice.Currency,
		jsonArray(invoice.LineItems), jsonArray(invoice.InvoiceTags),
		jsonArray(invoice.Payments), jsonArray(invoice.Rejections),
		invoice.TotalPriceTaxExcl, invoice.TotalPriceTaxIncl, invoice.Revision, invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice: %s no existe", invoice.ID)
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila (SELECT ... FOR UPDATE); usar dentro de una transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.get(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

func (r *InvoiceRepo) get(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// ListByCompany lista facturas de la empresa, más recientes primero. limit <= 0 = sin límite.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, status entity.Status, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT NULLIF($3, 0) OFFSET $4`
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.q.Query(ctx, query, companyID, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// AppendOperation agrega una entrada al log de operaciones.
func (r *InvoiceRepo) AppendOperation(ctx context.Context, op *entity.Operation) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	payload := op.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	query := `
		INSERT INTO invoice_operations (id, invoice_id, revision, action, payload, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		op.ID, op.InvoiceID, op.Revision, op.Action, []byte(payload), op.UserID, op.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("operation revision %d already recorded: %w", op.Revision, err)
		}
		return fmt.Errorf("insert invoice operation: %w", err)
	}
	return nil
}

// ListOperations devuelve el log de la factura en orden de revisión.
func (r *InvoiceRepo) ListOperations(ctx context.Context, invoiceID string) ([]*entity.Operation, error) {
	query := `
		SELECT id, invoice_id, revision, action, payload, user_id, created_at
		FROM invoice_operations WHERE invoice_id = $1 ORDER BY revision`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice operations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Operation
	for rows.Next() {
		var op entity.Operation
		var payload []byte
		if err := rows.Scan(&op.ID, &op.InvoiceID, &op.Revision, &op.Action, &payload, &op.UserID, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Payload = payload
		list = append(list, &op)
	}
	return list, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.Status, &inv.InvoiceNo, &inv.DateIssued,
		&inv.PayAfter, &inv.ClosureReason, &inv.Currency,
		&inv.LineItems, &inv.InvoiceTags, &inv.Payments, &inv.Rejections,
		&inv.TotalPriceTaxExcl, &inv.TotalPriceTaxIncl, &inv.Revision,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// jsonArray evita guardar null en columnas JSONB de arreglos.
func jsonArray[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
