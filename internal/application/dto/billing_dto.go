package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// CreateInvoiceRequest body para POST /api/invoices. ID opcional (se genera un UUID).
type CreateInvoiceRequest struct {
	ID       string `json:"id,omitempty"`
	Currency string `json:"currency"`
}

// ListInvoicesRequest filtros de GET /api/invoices.
type ListInvoicesRequest struct {
	PageRequest
	Status string `query:"status"`
}

// InvoiceResponse factura completa en respuestas.
type InvoiceResponse struct {
	ID                string             `json:"id"`
	CompanyID         string             `json:"company_id"`
	Status            string             `json:"status"`
	InvoiceNo         string             `json:"invoice_no"`
	DateIssued        string             `json:"date_issued"`
	PayAfter          string             `json:"pay_after"`
	ClosureReason     string             `json:"closure_reason,omitempty"`
	Currency          string             `json:"currency"`
	LineItems         []entity.LineItem  `json:"line_items"`
	InvoiceTags       []entity.Tag       `json:"invoice_tags"`
	Payments          []entity.Payment   `json:"payments"`
	Rejections        []entity.Rejection `json:"rejections"`
	TotalPriceTaxExcl decimal.Decimal    `json:"total_price_tax_excl"`
	TotalPriceTaxIncl decimal.Decimal    `json:"total_price_tax_incl"`
	Revision          int64              `json:"revision"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// InvoiceListResponse página de facturas.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// OperationResponse entrada del log de operaciones.
type OperationResponse struct {
	ID        string          `json:"id"`
	Revision  int64           `json:"revision"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	UserID    string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// AddLineItemRequest body para POST /api/invoices/:id/line-items.
type AddLineItemRequest struct {
	ID                string          `json:"id"`
	Description       string          `json:"description,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	TaxPercent        decimal.Decimal `json:"tax_percent"`
	UnitPriceTaxExcl  decimal.Decimal `json:"unit_price_tax_excl"`
	UnitPriceTaxIncl  decimal.Decimal `json:"unit_price_tax_incl"`
	TotalPriceTaxExcl decimal.Decimal `json:"total_price_tax_excl"`
	TotalPriceTaxIncl decimal.Decimal `json:"total_price_tax_incl"`
	LineItemTags      []entity.Tag    `json:"line_item_tags,omitempty"`
}

// EditLineItemRequest body para PATCH /api/invoices/:id/line-items/:lineItemId.
// Campos ausentes o null no se modifican. Intent: TOTAL_EXCL, TOTAL_INCL, UNIT_EXCL, UNIT_INCL, QUANTITY.
type EditLineItemRequest struct {
	Description       *string          `json:"description,omitempty"`
	Currency          *string          `json:"currency,omitempty"`
	Quantity          *decimal.Decimal `json:"quantity,omitempty"`
	TaxPercent        *decimal.Decimal `json:"tax_percent,omitempty"`
	UnitPriceTaxExcl  *decimal.Decimal `json:"unit_price_tax_excl,omitempty"`
	UnitPriceTaxIncl  *decimal.Decimal `json:"unit_price_tax_incl,omitempty"`
	TotalPriceTaxExcl *decimal.Decimal `json:"total_price_tax_excl,omitempty"`
	TotalPriceTaxIncl *decimal.Decimal `json:"total_price_tax_incl,omitempty"`
	LineItemTags      []entity.Tag     `json:"line_item_tags,omitempty"`
	Intent            string           `json:"intent,omitempty"`
}

// SetTagRequest body para PUT de etiquetas (línea o factura).
type SetTagRequest struct {
	Dimension string  `json:"dimension"`
	Value     string  `json:"value"`
	Label     *string `json:"label,omitempty"`
}

// TransitionsResponse tabla de transiciones vigente y acciones disponibles.
type TransitionsResponse struct {
	Transitions map[string][]string `json:"transitions"`
	Actions     []string            `json:"actions"`
}

// NewInvoiceResponse mapea la entidad a la respuesta.
func NewInvoiceResponse(inv *entity.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:                inv.ID,
		CompanyID:         inv.CompanyID,
		Status:            string(inv.Status),
		InvoiceNo:         inv.InvoiceNo,
		DateIssued:        inv.DateIssued,
		PayAfter:          inv.PayAfter,
		ClosureReason:     string(inv.ClosureReason),
		Currency:          inv.Currency,
		LineItems:         nonNil(inv.LineItems),
		InvoiceTags:       nonNil(inv.InvoiceTags),
		Payments:          nonNil(inv.Payments),
		Rejections:        nonNil(inv.Rejections),
		TotalPriceTaxExcl: inv.TotalPriceTaxExcl,
		TotalPriceTaxIncl: inv.TotalPriceTaxIncl,
		Revision:          inv.Revision,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
