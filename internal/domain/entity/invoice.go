package entity

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status estado de pago/aprobación de la factura.
type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusIssued           Status = "ISSUED"
	StatusCancelled        Status = "CANCELLED"
	StatusAccepted         Status = "ACCEPTED"
	StatusRejected         Status = "REJECTED"
	StatusPaymentScheduled Status = "PAYMENTSCHEDULED"
	StatusPaymentSent      Status = "PAYMENTSENT"
	StatusPaymentIssue     Status = "PAYMENTISSUE"
	StatusPaymentReceived  Status = "PAYMENTRECEIVED"
	StatusPaymentClosed    Status = "PAYMENTCLOSED"
)

// AllStatuses en el orden natural del ciclo de vida.
var AllStatuses = []Status{
	StatusDraft, StatusIssued, StatusCancelled, StatusAccepted, StatusRejected,
	StatusPaymentScheduled, StatusPaymentSent, StatusPaymentIssue,
	StatusPaymentReceived, StatusPaymentClosed,
}

// Valid indica si s es uno de los estados conocidos.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ClosureReason motivo de cierre del pago (PAYMENTCLOSED).
type ClosureReason string

const (
	ClosureUnderpaid ClosureReason = "UNDERPAID"
	ClosureOverpaid  ClosureReason = "OVERPAID"
	ClosureCancelled ClosureReason = "CANCELLED"
)

// Valid indica si r es un motivo de cierre conocido.
func (r ClosureReason) Valid() bool {
	switch r {
	case ClosureUnderpaid, ClosureOverpaid, ClosureCancelled:
		return true
	}
	return false
}

// Invoice agregado raíz: cabecera, líneas, etiquetas, pagos y rechazos.
// TotalPriceTaxExcl/TotalPriceTaxIncl son derivados de las líneas.
type Invoice struct {
	ID                string
	CompanyID         string
	Status            Status
	InvoiceNo         string // solo lo asigna la transición a ISSUED
	DateIssued        string
	PayAfter          string
	ClosureReason     ClosureReason
	Currency          string
	Rejections        []Rejection
	Payments          []Payment
	LineItems         []LineItem
	InvoiceTags       []Tag
	TotalPriceTaxExcl decimal.Decimal
	TotalPriceTaxIncl decimal.Decimal
	Revision          int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewDraftInvoice crea una factura en DRAFT con colecciones vacías.
func NewDraftInvoice(id, companyID, currency string, now time.Time) *Invoice {
	return &Invoice{
		ID:                id,
		CompanyID:         companyID,
		Status:            StatusDraft,
		Currency:          currency,
		Rejections:        []Rejection{},
		Payments:          []Payment{},
		LineItems:         []LineItem{},
		InvoiceTags:       []Tag{},
		TotalPriceTaxExcl: decimal.Zero,
		TotalPriceTaxIncl: decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Clone devuelve una copia profunda; las operaciones del núcleo trabajan sobre ella
// para que un error no deje cambios parciales en el valor original.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	out.Rejections = slices.Clone(inv.Rejections)
	out.Payments = slices.Clone(inv.Payments)
	out.InvoiceTags = slices.Clone(inv.InvoiceTags)
	out.LineItems = slices.Clone(inv.LineItems)
	for i := range out.LineItems {
		out.LineItems[i] = out.LineItems[i].Clone()
	}
	return &out
}

// HasFinalRejection indica si algún rechazo registrado es definitivo.
func (inv *Invoice) HasFinalRejection() bool {
	for _, r := range inv.Rejections {
		if r.Final {
			return true
		}
	}
	return false
}

// LineItemIndex devuelve la posición de la línea con ese id o -1.
func (inv *Invoice) LineItemIndex(id string) int {
	for i := range inv.LineItems {
		if inv.LineItems[i].ID == id {
			return i
		}
	}
	return -1
}

// PaymentIndex devuelve la posición del pago con ese id o -1.
func (inv *Invoice) PaymentIndex(id string) int {
	for i := range inv.Payments {
		if inv.Payments[i].ID == id {
			return i
		}
	}
	return -1
}
