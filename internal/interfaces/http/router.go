package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/pkg/jwt"
	"github.com/jhoicas/invoice-lifecycle/pkg/logger"
)

// writeRoles roles que pueden modificar facturas.
var writeRoles = []string{jwt.RoleAdmin, jwt.RoleFacturador, jwt.RoleAprobador}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC  *billing.InvoiceUseCase
	InvoicePDF *billing.PDFUseCase
	Auth       AuthConfig
	Logger     *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.Auth))
	canWrite := RequireRole(writeRoles...)

	h := NewInvoiceHandler(deps.InvoiceUC, deps.InvoicePDF, deps.Logger)

	invoices := protected.Group("/invoices")
	invoices.Post("/", canWrite, h.Create)
	invoices.Get("/", h.List)
	invoices.Get("/:id", h.GetByID)
	invoices.Get("/:id/operations", h.Operations)
	invoices.Get("/:id/pdf", h.DownloadPDF)

	invoices.Post("/:id/line-items", canWrite, h.AddLineItem)
	invoices.Patch("/:id/line-items/:lineItemId", canWrite, h.EditLineItem)
	invoices.Delete("/:id/line-items/:lineItemId", canWrite, h.DeleteLineItem)
	invoices.Put("/:id/line-items/:lineItemId/tags", canWrite, h.SetLineItemTag)
	invoices.Put("/:id/tags", canWrite, h.SetInvoiceTag)

	invoices.Post("/:id/actions/:action", canWrite, h.ApplyAction)

	protected.Get("/workflow/transitions", h.Transitions)
}
