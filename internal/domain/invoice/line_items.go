// Package invoice contiene las operaciones sobre las líneas y etiquetas de una factura.
// Cada operación recibe la factura actual, trabaja sobre una copia y devuelve
// la nueva versión; la factura de entrada nunca se modifica.
package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/pricing"
)

// AddLineItemInput línea completa; los cuatro precios deben ser consistentes.
type AddLineItemInput struct {
	ID                string
	Description       string
	Currency          string
	Quantity          decimal.Decimal
	TaxPercent        decimal.Decimal
	UnitPriceTaxExcl  decimal.Decimal
	UnitPriceTaxIncl  decimal.Decimal
	TotalPriceTaxExcl decimal.Decimal
	TotalPriceTaxIncl decimal.Decimal
	LineItemTags      []entity.Tag
}

// EditLineItemInput edición parcial: los campos nil no se aplican.
// LineItemTags nil deja las etiquetas; un slice (aunque vacío) las reemplaza.
type EditLineItemInput struct {
	ID                string
	Description       *string
	Currency          *string
	Quantity          *decimal.Decimal
	TaxPercent        *decimal.Decimal
	UnitPriceTaxExcl  *decimal.Decimal
	UnitPriceTaxIncl  *decimal.Decimal
	TotalPriceTaxExcl *decimal.Decimal
	TotalPriceTaxIncl *decimal.Decimal
	LineItemTags      []entity.Tag
	Intent            pricing.EditIntent
}

// DeleteLineItemInput identifica la línea a eliminar.
type DeleteLineItemInput struct {
	ID string
}

// AddLineItem agrega una línea nueva y recalcula los totales.
func AddLineItem(inv *entity.Invoice, in AddLineItemInput) (*entity.Invoice, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("%w: id es requerido", domain.ErrInvalidInput)
	}
	if inv.LineItemIndex(in.ID) >= 0 {
		return nil, &domain.DuplicateIDError{Kind: "line item", ID: in.ID}
	}
	li := entity.LineItem{
		ID:                in.ID,
		Description:       in.Description,
		Currency:          in.Currency,
		Quantity:          in.Quantity,
		TaxPercent:        in.TaxPercent,
		UnitPriceTaxExcl:  in.UnitPriceTaxExcl,
		UnitPriceTaxIncl:  in.UnitPriceTaxIncl,
		TotalPriceTaxExcl: in.TotalPriceTaxExcl,
		TotalPriceTaxIncl: in.TotalPriceTaxIncl,
		LineItemTags:      foldTags(in.LineItemTags),
	}
	if li.Currency == "" {
		li.Currency = inv.Currency
	}
	if err := pricing.ValidateNewItem(li); err != nil {
		return nil, err
	}

	out := inv.Clone()
	out.LineItems = append(out.LineItems, li)
	RecomputeTotals(out)
	return out, nil
}

// EditLineItem superpone los campos enviados sobre la línea existente y la reconcilia.
func EditLineItem(inv *entity.Invoice, in EditLineItemInput) (*entity.Invoice, error) {
	idx := inv.LineItemIndex(in.ID)
	if idx < 0 {
		return nil, &domain.NotFoundError{Kind: "line item", ID: in.ID}
	}
	out := inv.Clone()
	prev := out.LineItems[idx]
	next := overlay(prev.Clone(), in)

	reconciled, err := pricing.ReconcileWithIntent(prev, next, in.Intent)
	if err != nil {
		return nil, err
	}
	out.LineItems[idx] = reconciled
	RecomputeTotals(out)
	return out, nil
}

// DeleteLineItem elimina la línea indicada. Un id inexistente no es error.
func DeleteLineItem(inv *entity.Invoice, in DeleteLineItemInput) (*entity.Invoice, error) {
	out := inv.Clone()
	if idx := out.LineItemIndex(in.ID); idx >= 0 {
		out.LineItems = append(out.LineItems[:idx], out.LineItems[idx+1:]...)
	}
	RecomputeTotals(out)
	return out, nil
}

// RecomputeTotals recalcula desde cero los totales de la factura.
func RecomputeTotals(inv *entity.Invoice) {
	excl, incl := decimal.Zero, decimal.Zero
	for _, li := range inv.LineItems {
		excl = excl.Add(li.Quantity.Mul(li.UnitPriceTaxExcl))
		incl = incl.Add(li.Quantity.Mul(li.UnitPriceTaxIncl))
	}
	inv.TotalPriceTaxExcl = excl
	inv.TotalPriceTaxIncl = incl
}

func overlay(li entity.LineItem, in EditLineItemInput) entity.LineItem {
	if in.Description != nil {
		li.Description = *in.Description
	}
	if in.Currency != nil {
		li.Currency = *in.Currency
	}
	if in.Quantity != nil {
		li.Quantity = *in.Quantity
	}
	if in.TaxPercent != nil {
		li.TaxPercent = *in.TaxPercent
	}
	if in.UnitPriceTaxExcl != nil {
		li.UnitPriceTaxExcl = *in.UnitPriceTaxExcl
	}
	if in.UnitPriceTaxIncl != nil {
		li.UnitPriceTaxIncl = *in.UnitPriceTaxIncl
	}
	if in.TotalPriceTaxExcl != nil {
		li.TotalPriceTaxExcl = *in.TotalPriceTaxExcl
	}
	if in.TotalPriceTaxIncl != nil {
		li.TotalPriceTaxIncl = *in.TotalPriceTaxIncl
	}
	if in.LineItemTags != nil {
		li.LineItemTags = foldTags(in.LineItemTags)
	}
	return li
}
