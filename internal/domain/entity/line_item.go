package entity

import (
	"slices"

	"github.com/shopspring/decimal"
)

// LineItem representa una línea de la factura con sus cuatro precios.
// Invariante: unitIncl = unitExcl*(1+tax/100), totalExcl = qty*unitExcl, totalIncl = qty*unitIncl.
type LineItem struct {
	ID                string          `json:"id"`
	Description       string          `json:"description,omitempty"`
	Currency          string          `json:"currency,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	TaxPercent        decimal.Decimal `json:"tax_percent"`
	UnitPriceTaxExcl  decimal.Decimal `json:"unit_price_tax_excl"`
	UnitPriceTaxIncl  decimal.Decimal `json:"unit_price_tax_incl"`
	TotalPriceTaxExcl decimal.Decimal `json:"total_price_tax_excl"`
	TotalPriceTaxIncl decimal.Decimal `json:"total_price_tax_incl"`
	LineItemTags      []Tag           `json:"line_item_tags"`
}

// Clone copia la línea incluyendo sus etiquetas.
func (li LineItem) Clone() LineItem {
	li.LineItemTags = slices.Clone(li.LineItemTags)
	return li
}

// Tag clasificación por dimensión (a lo sumo una por dimensión en cada colección).
type Tag struct {
	Dimension string  `json:"dimension"`
	Value     string  `json:"value"`
	Label     *string `json:"label"`
}
