package invoice

import (
	"fmt"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// SetLineItemTagInput etiqueta para una línea concreta.
type SetLineItemTagInput struct {
	LineItemID string
	Dimension  string
	Value      string
	Label      *string
}

// SetInvoiceTagInput etiqueta a nivel de factura.
type SetInvoiceTagInput struct {
	Dimension string
	Value     string
	Label     *string
}

// UpsertTag sobrescribe la etiqueta de la misma dimensión o la agrega al final.
// Devuelve un slice nuevo.
func UpsertTag(tags []entity.Tag, dimension, value string, label *string) []entity.Tag {
	out := append([]entity.Tag{}, tags...)
	for i := range out {
		if out[i].Dimension == dimension {
			out[i].Value = value
			out[i].Label = label
			return out
		}
	}
	return append(out, entity.Tag{Dimension: dimension, Value: value, Label: label})
}

// foldTags arma una colección con a lo sumo una etiqueta por dimensión;
// ante dimensiones repetidas gana la última.
func foldTags(tags []entity.Tag) []entity.Tag {
	out := []entity.Tag{}
	for _, t := range tags {
		out = UpsertTag(out, t.Dimension, t.Value, t.Label)
	}
	return out
}

// SetLineItemTag asigna una etiqueta a la línea indicada.
func SetLineItemTag(inv *entity.Invoice, in SetLineItemTagInput) (*entity.Invoice, error) {
	if err := checkTag(in.Dimension, in.Value); err != nil {
		return nil, err
	}
	idx := inv.LineItemIndex(in.LineItemID)
	if idx < 0 {
		return nil, &domain.NotFoundError{Kind: "line item", ID: in.LineItemID}
	}
	out := inv.Clone()
	out.LineItems[idx].LineItemTags = UpsertTag(out.LineItems[idx].LineItemTags, in.Dimension, in.Value, in.Label)
	return out, nil
}

// SetInvoiceTag asigna una etiqueta a la factura.
func SetInvoiceTag(inv *entity.Invoice, in SetInvoiceTagInput) (*entity.Invoice, error) {
	if err := checkTag(in.Dimension, in.Value); err != nil {
		return nil, err
	}
	out := inv.Clone()
	out.InvoiceTags = UpsertTag(out.InvoiceTags, in.Dimension, in.Value, in.Label)
	return out, nil
}

func checkTag(dimension, value string) error {
	if dimension == "" || value == "" {
		return fmt.Errorf("%w: dimension y value son requeridos", domain.ErrInvalidInput)
	}
	return nil
}
