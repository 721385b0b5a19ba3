package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura.
type PDFUseCase struct {
	invoiceRepo repository.InvoiceRepository
	generator   InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(invoiceRepo repository.InvoiceRepository, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{invoiceRepo: invoiceRepo, generator: generator}
}

// DownloadInvoicePDF genera el PDF de la factura.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrForbidden        si la factura no pertenece a la empresa del token.
//   - domain.ErrInvalidInput     si la factura está en DRAFT o CANCELLED (sin número asignado).
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, companyID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv == nil {
		return nil, "", &domain.NotFoundError{Kind: "invoice", ID: invoiceID}
	}
	if inv.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}
	if inv.Status == entity.StatusDraft || inv.Status == entity.StatusCancelled || inv.InvoiceNo == "" {
		return nil, "", fmt.Errorf("%w: la factura está en estado %s, emítala antes de descargar el PDF",
			domain.ErrInvalidInput, inv.Status)
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, pdfFilename(inv.InvoiceNo), nil
}

// pdfFilename conserva letras, dígitos, '-', '_' y '.'; el resto pasa a '_'.
func pdfFilename(invoiceNo string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, invoiceNo)
	return "factura_" + safe + ".pdf"
}
