package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/application/dto"
	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/workflow"
	"github.com/jhoicas/invoice-lifecycle/pkg/logger"
)

// InvoiceHandler maneja las peticiones HTTP del ciclo de vida de facturas (protegido).
type InvoiceHandler struct {
	uc    *billing.InvoiceUseCase
	pdfUC *billing.PDFUseCase
	log   *logger.Logger
}

// NewInvoiceHandler construye el handler. pdfUC puede ser nil (ruta PDF deshabilitada).
func NewInvoiceHandler(uc *billing.InvoiceUseCase, pdfUC *billing.PDFUseCase, log *logger.Logger) *InvoiceHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceHandler{uc: uc, pdfUC: pdfUC, log: log.Named("http")}
}

// Create godoc
// @Summary      Crear factura en borrador
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateInvoiceRequest  true  "Moneda e id opcional"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar facturas de la empresa
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filtrar por estado"
// @Param        limit   query  int     false  "Máx. resultados (default 20, max 100)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	var in dto.ListInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID obtiene el detalle completo de una factura.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Operations devuelve el log de operaciones en orden de revisión.
// GET /api/invoices/:id/operations
func (h *InvoiceHandler) Operations(c *fiber.Ctx) error {
	out, err := h.uc.Operations(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar la factura en PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	if h.pdfUC == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "generación de PDF deshabilitada"})
	}
	pdfBytes, filename, err := h.pdfUC.DownloadInvoicePDF(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(filename))
	return c.Send(pdfBytes)
}

// AddLineItem godoc
// @Summary      Agregar línea
// @Description  Los cuatro precios deben cumplir unit_incl = unit_excl*(1+tax/100) y total = cantidad*unit.
// @Tags         line-items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID de la factura"
// @Param        body  body      dto.AddLineItemRequest  true  "Línea"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/line-items [post]
func (h *InvoiceHandler) AddLineItem(c *fiber.Ctx) error {
	var in dto.AddLineItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.AddLineItem(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// EditLineItem godoc
// @Summary      Editar línea (parcial)
// @Description  Los campos ausentes no cambian; los precios se reconcilian según intent o el campo modificado.
// @Tags         line-items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id          path      string                   true  "ID de la factura"
// @Param        lineItemId  path      string                   true  "ID de la línea"
// @Param        body        body      dto.EditLineItemRequest  true  "Campos a modificar"
// @Success      200         {object}  dto.InvoiceResponse
// @Failure      404         {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/line-items/{lineItemId} [patch]
func (h *InvoiceHandler) EditLineItem(c *fiber.Ctx) error {
	var in dto.EditLineItemRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.EditLineItem(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("lineItemId"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteLineItem elimina una línea. Un id inexistente no es error.
// DELETE /api/invoices/:id/line-items/:lineItemId
func (h *InvoiceHandler) DeleteLineItem(c *fiber.Ctx) error {
	out, err := h.uc.DeleteLineItem(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("lineItemId"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// SetLineItemTag PUT /api/invoices/:id/line-items/:lineItemId/tags
func (h *InvoiceHandler) SetLineItemTag(c *fiber.Ctx) error {
	var in dto.SetTagRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SetLineItemTag(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), c.Params("lineItemId"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// SetInvoiceTag PUT /api/invoices/:id/tags
func (h *InvoiceHandler) SetInvoiceTag(c *fiber.Ctx) error {
	var in dto.SetTagRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SetInvoiceTag(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// ApplyAction godoc
// @Summary      Ejecutar una transición de estado
// @Description  action: cancel, issue, reset, reject, accept, reinstate, schedulePayment, reapprovePayment,
// @Description  registerPaymentTx, reportPaymentIssue, confirmPayment, closePayment. El cuerpo trae los campos de la acción.
// @Tags         workflow
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path      string  true  "ID de la factura"
// @Param        action  path      string  true  "Acción"
// @Success      200     {object}  dto.InvoiceResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/actions/{action} [post]
func (h *InvoiceHandler) ApplyAction(c *fiber.Ctx) error {
	action, err := workflow.ParseAction(c.Params("action"))
	if err != nil {
		return h.writeError(c, err)
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(action); err != nil {
			return invalidBody(c)
		}
	}
	out, err := h.uc.ApplyAction(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), action)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(out)
}

// Transitions GET /api/workflow/transitions
func (h *InvoiceHandler) Transitions(c *fiber.Ctx) error {
	return c.JSON(h.uc.Transitions())
}

// writeError traduce errores de dominio a códigos HTTP; el mensaje de los errores
// de negocio se devuelve tal cual.
func (h *InvoiceHandler) writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInvariant):
		status, code = fiber.StatusUnprocessableEntity, "PRICE_MISMATCH"
	case errors.Is(err, domain.ErrPrecondition):
		status, code = fiber.StatusUnprocessableEntity, "MISSING_FIELDS"
	case errors.Is(err, domain.ErrIllegalTransition):
		status, code = fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrBlockedTransition):
		status, code = fiber.StatusConflict, "TRANSITION_BLOCKED"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	}
	if status == fiber.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
