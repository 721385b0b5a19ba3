// Package workflow implementa la máquina de estados de la factura: cada acción
// valida sus campos, consulta la tabla de transiciones y aplica su efecto sobre
// una copia de la factura.
package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// Action entrada de una transición. La implementan los tipos *XxxInput de este paquete.
type Action interface {
	Name() string
	Target() entity.Status
}

// Nombres de las acciones (verbo usado por la API y el log de operaciones).
const (
	ActionCancel             = "cancel"
	ActionIssue              = "issue"
	ActionReset              = "reset"
	ActionReject             = "reject"
	ActionAccept             = "accept"
	ActionReinstate          = "reinstate"
	ActionSchedulePayment    = "schedulePayment"
	ActionReapprovePayment   = "reapprovePayment"
	ActionRegisterPaymentTx  = "registerPaymentTx"
	ActionReportPaymentIssue = "reportPaymentIssue"
	ActionConfirmPayment     = "confirmPayment"
	ActionClosePayment       = "closePayment"
)

// ActionNames todas las acciones en orden del ciclo de vida.
var ActionNames = []string{
	ActionCancel, ActionIssue, ActionReset, ActionReject, ActionAccept, ActionReinstate,
	ActionSchedulePayment, ActionReapprovePayment, ActionRegisterPaymentTx,
	ActionReportPaymentIssue, ActionConfirmPayment, ActionClosePayment,
}

// CancelInput anula la factura.
type CancelInput struct{}

// IssueInput emite la factura con número y fecha.
type IssueInput struct {
	InvoiceNo  string `json:"invoice_no"`
	DateIssued string `json:"date_issued"`
}

// ResetInput devuelve la factura a borrador.
type ResetInput struct{}

// RejectInput registra un rechazo; Final bloquea la reinstauración.
type RejectInput struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Final  bool   `json:"final"`
}

// AcceptInput aprueba la factura para pago.
type AcceptInput struct {
	PayAfter string `json:"pay_after"`
}

// ReinstateInput reabre una factura rechazada.
type ReinstateInput struct{}

// SchedulePaymentInput programa un pago nuevo.
type SchedulePaymentInput struct {
	ID           string `json:"id"`
	ProcessorRef string `json:"processor_ref"`
}

// ReapprovePaymentInput vuelve a aprobar tras un problema de pago.
type ReapprovePaymentInput struct{}

// RegisterPaymentTxInput asocia la transacción al pago.
type RegisterPaymentTxInput struct {
	ID        string `json:"id"`
	TxRef     string `json:"tx_ref"`
	Timestamp string `json:"timestamp"`
}

// ReportPaymentIssueInput reporta un problema con el pago.
type ReportPaymentIssueInput struct {
	ID    string `json:"id"`
	Issue string `json:"issue"`
}

// ConfirmPaymentInput Amount es puntero para distinguir "ausente" de cero.
type ConfirmPaymentInput struct {
	ID     string           `json:"id"`
	Amount *decimal.Decimal `json:"amount"`
}

// ClosePaymentInput cierra el ciclo de pago con un motivo.
type ClosePaymentInput struct {
	ClosureReason entity.ClosureReason `json:"closure_reason"`
}

func (*CancelInput) Name() string             { return ActionCancel }
func (*IssueInput) Name() string              { return ActionIssue }
func (*ResetInput) Name() string              { return ActionReset }
func (*RejectInput) Name() string             { return ActionReject }
func (*AcceptInput) Name() string             { return ActionAccept }
func (*ReinstateInput) Name() string          { return ActionReinstate }
func (*SchedulePaymentInput) Name() string    { return ActionSchedulePayment }
func (*ReapprovePaymentInput) Name() string   { return ActionReapprovePayment }
func (*RegisterPaymentTxInput) Name() string  { return ActionRegisterPaymentTx }
func (*ReportPaymentIssueInput) Name() string { return ActionReportPaymentIssue }
func (*ConfirmPaymentInput) Name() string     { return ActionConfirmPayment }
func (*ClosePaymentInput) Name() string       { return ActionClosePayment }

func (*CancelInput) Target() entity.Status             { return entity.StatusCancelled }
func (*IssueInput) Target() entity.Status              { return entity.StatusIssued }
func (*ResetInput) Target() entity.Status              { return entity.StatusDraft }
func (*RejectInput) Target() entity.Status             { return entity.StatusRejected }
func (*AcceptInput) Target() entity.Status             { return entity.StatusAccepted }
func (*ReinstateInput) Target() entity.Status          { return entity.StatusIssued }
func (*SchedulePaymentInput) Target() entity.Status    { return entity.StatusPaymentScheduled }
func (*ReapprovePaymentInput) Target() entity.Status   { return entity.StatusAccepted }
func (*RegisterPaymentTxInput) Target() entity.Status  { return entity.StatusPaymentSent }
func (*ReportPaymentIssueInput) Target() entity.Status { return entity.StatusPaymentIssue }
func (*ConfirmPaymentInput) Target() entity.Status     { return entity.StatusPaymentReceived }
func (*ClosePaymentInput) Target() entity.Status       { return entity.StatusPaymentClosed }

// ParseAction devuelve una entrada vacía para el verbo indicado, lista para
// decodificar el cuerpo de la petición sobre ella.
func ParseAction(name string) (Action, error) {
	switch name {
	case ActionCancel:
		return &CancelInput{}, nil
	case ActionIssue:
		return &IssueInput{}, nil
	case ActionReset:
		return &ResetInput{}, nil
	case ActionReject:
		return &RejectInput{}, nil
	case ActionAccept:
		return &AcceptInput{}, nil
	case ActionReinstate:
		return &ReinstateInput{}, nil
	case ActionSchedulePayment:
		return &SchedulePaymentInput{}, nil
	case ActionReapprovePayment:
		return &ReapprovePaymentInput{}, nil
	case ActionRegisterPaymentTx:
		return &RegisterPaymentTxInput{}, nil
	case ActionReportPaymentIssue:
		return &ReportPaymentIssueInput{}, nil
	case ActionConfirmPayment:
		return &ConfirmPaymentInput{}, nil
	case ActionClosePayment:
		return &ClosePaymentInput{}, nil
	}
	return nil, fmt.Errorf("%w: acción %q desconocida", domain.ErrInvalidInput, name)
}

// Engine aplica acciones contra una tabla de transiciones.
type Engine struct {
	table TransitionTable
}

// NewEngine construye el motor con la tabla dada.
func NewEngine(table TransitionTable) *Engine {
	return &Engine{table: table}
}

// Table devuelve la tabla de transiciones en uso.
func (e *Engine) Table() TransitionTable {
	return e.table
}

// Apply ejecuta la acción sobre una copia de inv. Orden de validación: campos
// requeridos, bloqueo de reinstate por rechazo definitivo, tabla de transiciones.
// Ante cualquier error inv queda intacta y se devuelve nil.
func (e *Engine) Apply(inv *entity.Invoice, action Action) (*entity.Invoice, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: acción requerida", domain.ErrInvalidInput)
	}
	if missing := missingFields(action); len(missing) > 0 {
		return nil, &domain.PreconditionError{Action: action.Name(), Missing: missing}
	}
	if err := checkValues(action); err != nil {
		return nil, err
	}
	if _, ok := action.(*ReinstateInput); ok && inv.HasFinalRejection() {
		return nil, &domain.BlockedTransitionError{Action: ActionReinstate, Reason: "invoice has a final rejection"}
	}

	target := action.Target()
	if !e.table.Permits(inv.Status, target) {
		return nil, &domain.IllegalTransitionError{From: string(inv.Status), To: string(target)}
	}

	out := inv.Clone()
	out.Status = target
	if err := applySideEffect(out, action); err != nil {
		return nil, err
	}
	return out, nil
}

func missingFields(action Action) []string {
	var missing []string
	need := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}
	switch a := action.(type) {
	case *IssueInput:
		need(a.InvoiceNo != "", "invoiceNo")
		need(a.DateIssued != "", "dateIssued")
	case *RejectInput:
		need(a.ID != "", "id")
		need(a.Reason != "", "reason")
	case *AcceptInput:
		need(a.PayAfter != "", "payAfter")
	case *SchedulePaymentInput:
		need(a.ID != "", "id")
		need(a.ProcessorRef != "", "processorRef")
	case *RegisterPaymentTxInput:
		need(a.ID != "", "id")
		need(a.TxRef != "", "txRef")
		need(a.Timestamp != "", "timestamp")
	case *ReportPaymentIssueInput:
		need(a.ID != "", "id")
		need(a.Issue != "", "issue")
	case *ConfirmPaymentInput:
		need(a.ID != "", "id")
		need(a.Amount != nil, "amount")
	case *ClosePaymentInput:
		need(a.ClosureReason != "", "closureReason")
	}
	return missing
}

func checkValues(action Action) error {
	switch a := action.(type) {
	case *ClosePaymentInput:
		if !a.ClosureReason.Valid() {
			return fmt.Errorf("%w: closureReason %q desconocido", domain.ErrInvalidInput, a.ClosureReason)
		}
	case *ConfirmPaymentInput:
		if a.Amount.IsNegative() {
			return fmt.Errorf("%w: amount no puede ser negativo", domain.ErrInvalidInput)
		}
	}
	return nil
}

func applySideEffect(inv *entity.Invoice, action Action) error {
	switch a := action.(type) {
	case *CancelInput, *ResetInput, *ReinstateInput, *ReapprovePaymentInput:
		return nil
	case *IssueInput:
		inv.InvoiceNo = a.InvoiceNo
		inv.DateIssued = a.DateIssued
	case *RejectInput:
		inv.Rejections = append(inv.Rejections, entity.Rejection{ID: a.ID, Reason: a.Reason, Final: a.Final})
	case *AcceptInput:
		inv.PayAfter = a.PayAfter
	case *SchedulePaymentInput:
		return schedulePayment(inv, a)
	case *RegisterPaymentTxInput:
		return registerPaymentTx(inv, a)
	case *ReportPaymentIssueInput:
		return reportPaymentIssue(inv, a)
	case *ConfirmPaymentInput:
		return confirmPayment(inv, a)
	case *ClosePaymentInput:
		inv.ClosureReason = a.ClosureReason
	default:
		return fmt.Errorf("%w: acción %T no soportada", domain.ErrInvalidInput, action)
	}
	return nil
}
