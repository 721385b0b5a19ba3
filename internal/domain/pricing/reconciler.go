// Package pricing mantiene consistentes los cuatro precios de una línea de factura
// (unitario/total, sin/con impuesto). Funciones puras, sin I/O.
//
//	unitIncl  = unitExcl * (1 + tax/100)
//	totalExcl = qty * unitExcl
//	totalIncl = qty * unitIncl
//
// Todas las comparaciones usan tolerancia absoluta Epsilon.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// Epsilon tolerancia absoluta para comparar precios (1e-5).
var Epsilon = decimal.New(1, -5)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Relaciones verificadas al crear una línea.
const (
	RelationUnitIncl  = "unit-incl vs unit-excl*(1+tax)"
	RelationTotalIncl = "total-incl vs quantity*unit-incl"
	RelationTotalExcl = "total-excl vs quantity*unit-excl"
	RelationCrossTax  = "total-excl vs total-incl/(1+tax)"
)

// EditIntent indica qué campo de precio es la fuente de verdad en una edición.
type EditIntent string

const (
	IntentNone      EditIntent = ""
	IntentTotalExcl EditIntent = "TOTAL_EXCL"
	IntentTotalIncl EditIntent = "TOTAL_INCL"
	IntentUnitExcl  EditIntent = "UNIT_EXCL"
	IntentUnitIncl  EditIntent = "UNIT_INCL"
	// IntentQuantity mantiene el precio unitario sin impuesto y recalcula el resto.
	IntentQuantity EditIntent = "QUANTITY"
)

// ParseIntent convierte el valor recibido por la API; vacío equivale a IntentNone.
func ParseIntent(s string) (EditIntent, error) {
	switch i := EditIntent(s); i {
	case IntentNone, IntentTotalExcl, IntentTotalIncl, IntentUnitExcl, IntentUnitIncl, IntentQuantity:
		return i, nil
	}
	return IntentNone, fmt.Errorf("%w: intent %q desconocido", domain.ErrInvalidInput, s)
}

// Approx compara dos montos con la tolerancia Epsilon.
func Approx(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// TaxFactor devuelve 1 + taxPercent/100.
func TaxFactor(taxPercent decimal.Decimal) decimal.Decimal {
	return one.Add(taxPercent.Div(hundred))
}

// ValidateNewItem verifica que una línea nueva traiga los cuatro precios consistentes.
// No repara: ante la primera relación incumplida devuelve *domain.InvariantError.
func ValidateNewItem(item entity.LineItem) error {
	if err := checkShape(item); err != nil {
		return err
	}
	factor := TaxFactor(item.TaxPercent)
	unitIncl := item.UnitPriceTaxExcl.Mul(factor)
	totalExcl := item.Quantity.Mul(item.UnitPriceTaxExcl)
	totalIncl := item.Quantity.Mul(unitIncl)

	if !Approx(unitIncl, item.UnitPriceTaxIncl) {
		return mismatch(RelationUnitIncl, unitIncl, item.UnitPriceTaxIncl)
	}
	if !Approx(totalIncl, item.TotalPriceTaxIncl) {
		return mismatch(RelationTotalIncl, totalIncl, item.TotalPriceTaxIncl)
	}
	if !Approx(totalExcl, item.TotalPriceTaxExcl) {
		return mismatch(RelationTotalExcl, totalExcl, item.TotalPriceTaxExcl)
	}
	crossExcl := item.TotalPriceTaxIncl.Div(factor)
	if !Approx(crossExcl, item.TotalPriceTaxExcl) {
		return mismatch(RelationCrossTax, crossExcl, item.TotalPriceTaxExcl)
	}
	return nil
}

// InferIntent deduce el campo autoritativo de una línea editada. Prioridad:
// total sin impuesto, total con impuesto, unitario sin impuesto, unitario con impuesto.
// Devuelve IntentNone si la línea ya es consistente.
func InferIntent(next entity.LineItem) EditIntent {
	factor := TaxFactor(next.TaxPercent)
	switch {
	case !Approx(next.Quantity.Mul(next.UnitPriceTaxExcl), next.TotalPriceTaxExcl):
		return IntentTotalExcl
	case !Approx(next.Quantity.Mul(next.UnitPriceTaxIncl), next.TotalPriceTaxIncl):
		return IntentTotalIncl
	case !Approx(next.UnitPriceTaxExcl.Mul(factor), next.UnitPriceTaxIncl):
		return IntentUnitExcl
	case !Approx(next.UnitPriceTaxIncl.Div(factor), next.UnitPriceTaxExcl):
		return IntentUnitIncl
	}
	return IntentNone
}

// ApplyIntent recalcula los campos dependientes a partir del campo indicado por intent.
func ApplyIntent(item entity.LineItem, intent EditIntent) (entity.LineItem, error) {
	if err := checkShape(item); err != nil {
		return item, err
	}
	factor := TaxFactor(item.TaxPercent)
	qty := item.Quantity

	switch intent {
	case IntentNone:
		return item, nil
	case IntentTotalExcl:
		item.UnitPriceTaxExcl = item.TotalPriceTaxExcl.Div(qty)
		item.UnitPriceTaxIncl = item.UnitPriceTaxExcl.Mul(factor)
		item.TotalPriceTaxIncl = qty.Mul(item.UnitPriceTaxIncl)
	case IntentTotalIncl:
		item.UnitPriceTaxIncl = item.TotalPriceTaxIncl.Div(qty)
		item.UnitPriceTaxExcl = item.UnitPriceTaxIncl.Div(factor)
		item.TotalPriceTaxExcl = qty.Mul(item.UnitPriceTaxExcl)
	case IntentUnitExcl, IntentQuantity:
		item.UnitPriceTaxIncl = item.UnitPriceTaxExcl.Mul(factor)
		item.TotalPriceTaxExcl = qty.Mul(item.UnitPriceTaxExcl)
		item.TotalPriceTaxIncl = qty.Mul(item.UnitPriceTaxIncl)
	case IntentUnitIncl:
		item.UnitPriceTaxExcl = item.UnitPriceTaxIncl.Div(factor)
		item.TotalPriceTaxExcl = qty.Mul(item.UnitPriceTaxExcl)
		item.TotalPriceTaxIncl = qty.Mul(item.UnitPriceTaxIncl)
	default:
		return item, fmt.Errorf("%w: intent %q desconocido", domain.ErrInvalidInput, intent)
	}
	return item, nil
}

// Reconcile repara una edición parcial: next es previous con los campos enviados
// por el cliente superpuestos. El campo autoritativo se infiere con InferIntent.
func Reconcile(previous, next entity.LineItem) (entity.LineItem, error) {
	return ReconcileWithIntent(previous, next, IntentNone)
}

// ReconcileWithIntent igual que Reconcile, pero con un intent explícito tiene prioridad
// sobre la inferencia.
func ReconcileWithIntent(_, next entity.LineItem, intent EditIntent) (entity.LineItem, error) {
	if intent == IntentNone {
		intent = InferIntent(next)
	}
	return ApplyIntent(next, intent)
}

// checkShape rechaza cantidades no positivas (evita dividir por cero) e impuestos negativos.
func checkShape(item entity.LineItem) error {
	if !item.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if item.TaxPercent.IsNegative() {
		return fmt.Errorf("%w: tax_percent no puede ser negativo", domain.ErrInvalidInput)
	}
	return nil
}

func mismatch(relation string, expected, actual decimal.Decimal) error {
	return &domain.InvariantError{
		Relation: relation,
		Expected: expected.String(),
		Actual:   actual.String(),
	}
}
