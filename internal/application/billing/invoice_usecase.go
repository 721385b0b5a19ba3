package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/invoice-lifecycle/internal/application/dto"
	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/invoice"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/pricing"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/workflow"
	"github.com/jhoicas/invoice-lifecycle/pkg/logger"
)

// Acciones registradas en el log además de las transiciones de estado.
const (
	ActionCreate         = "create"
	ActionAddLineItem    = "addLineItem"
	ActionEditLineItem   = "editLineItem"
	ActionDeleteLineItem = "deleteLineItem"
	ActionSetLineItemTag = "setLineItemTag"
	ActionSetInvoiceTag  = "setInvoiceTag"
)

// InvoiceUseCase orquesta las operaciones sobre facturas: carga con bloqueo,
// aplica la operación de dominio, guarda la nueva versión y registra la operación,
// todo en una transacción.
type InvoiceUseCase struct {
	txRunner    InvoiceTxRunner
	invoiceRepo repository.InvoiceRepository
	engine      *workflow.Engine
	recorder    ActionRecorder
	log         *logger.Logger
	now         func() time.Time
}

// NewInvoiceUseCase construye el caso de uso. recorder puede ser nil.
func NewInvoiceUseCase(
	txRunner InvoiceTxRunner,
	invoiceRepo repository.InvoiceRepository,
	engine *workflow.Engine,
	log *logger.Logger,
	recorder ActionRecorder,
) *InvoiceUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		engine:      engine,
		recorder:    recorder,
		log:         log.Named("billing"),
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *InvoiceUseCase) WithClock(now func() time.Time) *InvoiceUseCase {
	uc.now = now
	return uc
}

// Create crea una factura en DRAFT.
func (uc *InvoiceUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if companyID == "" {
		return nil, domain.ErrUnauthorized
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.New().String()
	}
	now := uc.now().UTC()
	inv := entity.NewDraftInvoice(id, companyID, strings.ToUpper(strings.TrimSpace(in.Currency)), now)

	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	err = uc.txRunner.RunInvoice(ctx, func(repo repository.InvoiceRepository) error {
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		if existing != nil {
			return &domain.DuplicateIDError{Kind: "invoice", ID: id}
		}
		if err := repo.Create(ctx, inv); err != nil {
			return err
		}
		return repo.AppendOperation(ctx, &entity.Operation{
			InvoiceID: id,
			Revision:  0,
			Action:    ActionCreate,
			Payload:   payload,
			UserID:    userID,
			CreatedAt: now,
		})
	})
	if err != nil {
		uc.rejected(ActionCreate, id, err)
		return nil, err
	}
	uc.recorder.ActionApplied(ActionCreate, "", inv.Status)
	uc.log.Info().Str("invoice_id", id).Str("company_id", companyID).Str("action", ActionCreate).Msg("factura creada")
	return dto.NewInvoiceResponse(inv), nil
}

// Get devuelve la factura si pertenece a la empresa.
func (uc *InvoiceUseCase) Get(ctx context.Context, companyID, invoiceID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.load(ctx, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

// List lista las facturas de la empresa.
func (uc *InvoiceUseCase) List(ctx context.Context, companyID string, in dto.ListInvoicesRequest) (*dto.InvoiceListResponse, error) {
	in.DefaultPage()
	status := entity.Status(strings.ToUpper(in.Status))
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: status %q desconocido", domain.ErrInvalidInput, in.Status)
	}
	list, err := uc.invoiceRepo.ListByCompany(ctx, companyID, status, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *dto.NewInvoiceResponse(inv))
	}
	return out, nil
}

// Operations devuelve el log de operaciones de la factura.
func (uc *InvoiceUseCase) Operations(ctx context.Context, companyID, invoiceID string) ([]dto.OperationResponse, error) {
	if _, err := uc.load(ctx, companyID, invoiceID); err != nil {
		return nil, err
	}
	ops, err := uc.invoiceRepo.ListOperations(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	out := make([]dto.OperationResponse, 0, len(ops))
	for _, op := range ops {
		out = append(out, dto.OperationResponse{
			ID:        op.ID,
			Revision:  op.Revision,
			Action:    op.Action,
			Payload:   op.Payload,
			UserID:    op.UserID,
			CreatedAt: op.CreatedAt,
		})
	}
	return out, nil
}

// AddLineItem agrega una línea; los cuatro precios deben ser consistentes.
func (uc *InvoiceUseCase) AddLineItem(ctx context.Context, companyID, userID, invoiceID string, in dto.AddLineItemRequest) (*dto.InvoiceResponse, error) {
	return uc.mutate(ctx, companyID, userID, invoiceID, ActionAddLineItem, in, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return invoice.AddLineItem(inv, invoice.AddLineItemInput{
			ID:                in.ID,
			Description:       in.Description,
			Currency:          in.Currency,
			Quantity:          in.Quantity,
			TaxPercent:        in.TaxPercent,
			UnitPriceTaxExcl:  in.UnitPriceTaxExcl,
			UnitPriceTaxIncl:  in.UnitPriceTaxIncl,
			TotalPriceTaxExcl: in.TotalPriceTaxExcl,
			TotalPriceTaxIncl: in.TotalPriceTaxIncl,
			LineItemTags:      in.LineItemTags,
		})
	})
}

// EditLineItem aplica una edición parcial y reconcilia los precios.
func (uc *InvoiceUseCase) EditLineItem(ctx context.Context, companyID, userID, invoiceID, lineItemID string, in dto.EditLineItemRequest) (*dto.InvoiceResponse, error) {
	intent, err := pricing.ParseIntent(strings.ToUpper(in.Intent))
	if err != nil {
		return nil, err
	}
	payload := struct {
		LineItemID string `json:"line_item_id"`
		dto.EditLineItemRequest
	}{lineItemID, in}

	return uc.mutate(ctx, companyID, userID, invoiceID, ActionEditLineItem, payload, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return invoice.EditLineItem(inv, invoice.EditLineItemInput{
			ID:                lineItemID,
			Description:       in.Description,
			Currency:          in.Currency,
			Quantity:          in.Quantity,
			TaxPercent:        in.TaxPercent,
			UnitPriceTaxExcl:  in.UnitPriceTaxExcl,
			UnitPriceTaxIncl:  in.UnitPriceTaxIncl,
			TotalPriceTaxExcl: in.TotalPriceTaxExcl,
			TotalPriceTaxIncl: in.TotalPriceTaxIncl,
			LineItemTags:      in.LineItemTags,
			Intent:            intent,
		})
	})
}

// DeleteLineItem elimina una línea; un id inexistente no es error.
func (uc *InvoiceUseCase) DeleteLineItem(ctx context.Context, companyID, userID, invoiceID, lineItemID string) (*dto.InvoiceResponse, error) {
	payload := map[string]string{"line_item_id": lineItemID}
	return uc.mutate(ctx, companyID, userID, invoiceID, ActionDeleteLineItem, payload, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return invoice.DeleteLineItem(inv, invoice.DeleteLineItemInput{ID: lineItemID})
	})
}

// SetLineItemTag asigna una etiqueta a una línea.
func (uc *InvoiceUseCase) SetLineItemTag(ctx context.Context, companyID, userID, invoiceID, lineItemID string, in dto.SetTagRequest) (*dto.InvoiceResponse, error) {
	payload := struct {
		LineItemID string `json:"line_item_id"`
		dto.SetTagRequest
	}{lineItemID, in}

	return uc.mutate(ctx, companyID, userID, invoiceID, ActionSetLineItemTag, payload, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return invoice.SetLineItemTag(inv, invoice.SetLineItemTagInput{
			LineItemID: lineItemID,
			Dimension:  in.Dimension,
			Value:      in.Value,
			Label:      in.Label,
		})
	})
}

// SetInvoiceTag asigna una etiqueta a la factura.
func (uc *InvoiceUseCase) SetInvoiceTag(ctx context.Context, companyID, userID, invoiceID string, in dto.SetTagRequest) (*dto.InvoiceResponse, error) {
	return uc.mutate(ctx, companyID, userID, invoiceID, ActionSetInvoiceTag, in, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return invoice.SetInvoiceTag(inv, invoice.SetInvoiceTagInput{
			Dimension: in.Dimension,
			Value:     in.Value,
			Label:     in.Label,
		})
	})
}

// ApplyAction ejecuta una transición de estado.
func (uc *InvoiceUseCase) ApplyAction(ctx context.Context, companyID, userID, invoiceID string, action workflow.Action) (*dto.InvoiceResponse, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: acción requerida", domain.ErrInvalidInput)
	}
	return uc.mutate(ctx, companyID, userID, invoiceID, action.Name(), action, func(inv *entity.Invoice) (*entity.Invoice, error) {
		return uc.engine.Apply(inv, action)
	})
}

// Transitions devuelve la tabla vigente.
func (uc *InvoiceUseCase) Transitions() *dto.TransitionsResponse {
	out := &dto.TransitionsResponse{
		Transitions: make(map[string][]string),
		Actions:     workflow.ActionNames,
	}
	for from, targets := range uc.engine.Table() {
		list := make([]string, 0, len(targets))
		for _, to := range targets {
			list = append(list, string(to))
		}
		out.Transitions[string(from)] = list
	}
	return out
}

// mutate carga la factura con bloqueo, aplica op y persiste la nueva revisión
// junto con su entrada en el log. Cualquier error descarta todo.
func (uc *InvoiceUseCase) mutate(
	ctx context.Context,
	companyID, userID, invoiceID, action string,
	payload any,
	op func(inv *entity.Invoice) (*entity.Invoice, error),
) (*dto.InvoiceResponse, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var from entity.Status
	var result *entity.Invoice
	err = uc.txRunner.RunInvoice(ctx, func(repo repository.InvoiceRepository) error {
		current, err := repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		if current == nil {
			return &domain.NotFoundError{Kind: "invoice", ID: invoiceID}
		}
		if current.CompanyID != companyID {
			return domain.ErrForbidden
		}
		from = current.Status

		next, err := op(current)
		if err != nil {
			return err
		}
		next.Revision = current.Revision + 1
		next.UpdatedAt = uc.now().UTC()
		if err := repo.Update(ctx, next); err != nil {
			return err
		}
		if err := repo.AppendOperation(ctx, &entity.Operation{
			InvoiceID: invoiceID,
			Revision:  next.Revision,
			Action:    action,
			Payload:   raw,
			UserID:    userID,
			CreatedAt: next.UpdatedAt,
		}); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		uc.rejected(action, invoiceID, err)
		return nil, err
	}

	uc.recorder.ActionApplied(action, from, result.Status)
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("action", action).
		Str("from", string(from)).
		Str("to", string(result.Status)).
		Int64("revision", result.Revision).
		Msg("acción aplicada")
	return dto.NewInvoiceResponse(result), nil
}

func (uc *InvoiceUseCase) load(ctx context.Context, companyID, invoiceID string) (*entity.Invoice, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if inv == nil {
		return nil, &domain.NotFoundError{Kind: "invoice", ID: invoiceID}
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return inv, nil
}

func (uc *InvoiceUseCase) rejected(action, invoiceID string, err error) {
	uc.recorder.ActionRejected(action, err)
	uc.log.Warn().Err(err).Str("invoice_id", invoiceID).Str("action", action).Msg("acción rechazada")
}
