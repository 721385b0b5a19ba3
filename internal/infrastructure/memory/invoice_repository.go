// Package memory implementa la persistencia de facturas en memoria, para tests y
// para ejecutar el servicio sin base de datos (DB_DRIVER=memory).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
)

var (
	_ repository.InvoiceRepository = (*InvoiceRepo)(nil)
	_ billing.InvoiceTxRunner      = (*Store)(nil)
)

type data struct {
	invoices map[string]*entity.Invoice
	ops      map[string][]*entity.Operation
}

func newData() *data {
	return &data{
		invoices: make(map[string]*entity.Invoice),
		ops:      make(map[string][]*entity.Operation),
	}
}

// clone copia los mapas; los valores guardados nunca se modifican, se reemplazan.
func (d *data) clone() *data {
	out := newData()
	for k, v := range d.invoices {
		out.invoices[k] = v
	}
	for k, v := range d.ops {
		out.ops[k] = append([]*entity.Operation(nil), v...)
	}
	return out
}

// Store guarda facturas y operaciones. Las escrituras se serializan con writeMu;
// una transacción trabaja sobre una copia que se publica solo en el commit.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	d       *data
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{d: newData()}
}

// Repository devuelve un repo que lee y escribe directamente sobre el store.
func (s *Store) Repository() *InvoiceRepo {
	return &InvoiceRepo{store: s}
}

// RunInvoice ejecuta fn con un repo transaccional. Si fn falla, nada de lo escrito es visible.
func (s *Store) RunInvoice(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.d.clone()
	s.mu.RUnlock()

	if err := fn(&InvoiceRepo{store: s, tx: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = work
	s.mu.Unlock()
	return nil
}

// InvoiceRepo implementación en memoria de InvoiceRepository.
type InvoiceRepo struct {
	store *Store
	tx    *data // nil fuera de una transacción
}

func (r *InvoiceRepo) read(fn func(d *data)) {
	if r.tx != nil {
		fn(r.tx)
		return
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	fn(r.store.d)
}

func (r *InvoiceRepo) write(fn func(d *data) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.d)
}

// Create guarda una factura nueva.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	return r.write(func(d *data) error {
		if _, ok := d.invoices[invoice.ID]; ok {
			return fmt.Errorf("invoice already exists: %s", invoice.ID)
		}
		d.invoices[invoice.ID] = invoice.Clone()
		return nil
	})
}

// Update reemplaza la factura guardada.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.write(func(d *data) error {
		if _, ok := d.invoices[invoice.ID]; !ok {
			return fmt.Errorf("update invoice: %s no existe", invoice.ID)
		}
		d.invoices[invoice.ID] = invoice.Clone()
		return nil
	})
}

// GetByID devuelve una copia de la factura o (nil, nil).
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *entity.Invoice
	r.read(func(d *data) {
		out = d.invoices[id].Clone()
	})
	return out, nil
}

// GetForUpdate igual que GetByID; el bloqueo lo da RunInvoice.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

// ListByCompany lista facturas de la empresa, más recientes primero. limit <= 0 = sin límite.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, status entity.Status, limit, offset int) ([]*entity.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var list []*entity.Invoice
	r.read(func(d *data) {
		for _, inv := range d.invoices {
			if inv.CompanyID != companyID {
				continue
			}
			if status != "" && inv.Status != status {
				continue
			}
			list = append(list, inv.Clone())
		}
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})

	if offset > 0 {
		if offset >= len(list) {
			return nil, nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// AppendOperation agrega una entrada al log; la revisión debe ser única por factura.
func (r *InvoiceRepo) AppendOperation(ctx context.Context, op *entity.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	return r.write(func(d *data) error {
		for _, existing := range d.ops[op.InvoiceID] {
			if existing.Revision == op.Revision {
				return fmt.Errorf("operation revision %d already recorded", op.Revision)
			}
		}
		cp := *op
		d.ops[op.InvoiceID] = append(d.ops[op.InvoiceID], &cp)
		return nil
	})
}

// ListOperations devuelve el log en orden de revisión.
func (r *InvoiceRepo) ListOperations(ctx context.Context, invoiceID string) ([]*entity.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var list []*entity.Operation
	r.read(func(d *data) {
		for _, op := range d.ops[invoiceID] {
			cp := *op
			list = append(list, &cp)
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].Revision < list[j].Revision })
	return list, nil
}
