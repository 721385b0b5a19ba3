package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invoice-lifecycle/internal/application/billing"
	"github.com/jhoicas/invoice-lifecycle/internal/application/dto"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/workflow"
	"github.com/jhoicas/invoice-lifecycle/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/invoice-lifecycle/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/invoice-lifecycle/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/invoice-lifecycle/pkg/jwt"
	"github.com/jhoicas/invoice-lifecycle/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func buildInvoiceApp() *fiber.App {
	store := memory.NewStore()
	uc := billing.NewInvoiceUseCase(store, store.Repository(), workflow.NewEngine(workflow.DefaultTable()), logger.Nop(), nil)
	pdfUC := billing.NewPDFUseCase(store.Repository(), infrapdf.NewMarotoPDFGenerator())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		InvoiceUC:  uc,
		InvoicePDF: pdfUC,
		Auth:       testAuth,
		Logger:     logger.Nop(),
	})
	return app
}

type client struct {
	t    *testing.T
	app  *fiber.App
	auth string
}

func newClient(t *testing.T, app *fiber.App, role string) *client {
	return &client{t: t, app: app, auth: tokenForRole(t, role)}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", c.auth)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := new(bytes.Buffer)
	_, err = out.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp, out.Bytes()
}

func (c *client) invoice(method, path string, body any, wantStatus int) dto.InvoiceResponse {
	c.t.Helper()
	resp, raw := c.do(method, path, body)
	require.Equal(c.t, wantStatus, resp.StatusCode, string(raw))
	var out dto.InvoiceResponse
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out
}

func errorBody(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

var line = map[string]any{
	"id":                   "l1",
	"description":          "Servicio",
	"quantity":             "2",
	"tax_percent":          "10",
	"unit_price_tax_excl":  "100",
	"unit_price_tax_incl":  "110",
	"total_price_tax_excl": "200",
	"total_price_tax_incl": "220",
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceAPI_CicloCompleto(t *testing.T) {
	c := newClient(t, buildInvoiceApp(), pkgjwt.RoleFacturador)

	inv := c.invoice(http.MethodPost, "/api/invoices", map[string]any{"id": "inv-1", "currency": "COP"}, http.StatusCreated)
	assert.Equal(t, "DRAFT", inv.Status)

	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/line-items", line, http.StatusOK)
	assert.Equal(t, "220", inv.TotalPriceTaxIncl.String())

	inv = c.invoice(http.MethodPatch, "/api/invoices/inv-1/line-items/l1", map[string]any{"quantity": "3", "intent": "QUANTITY"}, http.StatusOK)
	assert.Equal(t, "330", inv.TotalPriceTaxIncl.String())

	inv = c.invoice(http.MethodPut, "/api/invoices/inv-1/tags", map[string]any{"dimension": "proyecto", "value": "p1"}, http.StatusOK)
	require.Len(t, inv.InvoiceTags, 1)

	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/issue", map[string]any{"invoice_no": "F-1", "date_issued": "2024-03-01"}, http.StatusOK)
	assert.Equal(t, "ISSUED", inv.Status)
	assert.Equal(t, "F-1", inv.InvoiceNo)

	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/accept", map[string]any{"pay_after": "2024-04-01"}, http.StatusOK)
	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/schedulePayment", map[string]any{"id": "p1", "processor_ref": "proc"}, http.StatusOK)
	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/registerPaymentTx", map[string]any{"id": "p1", "tx_ref": "tx", "timestamp": "2024-04-02T10:00:00Z"}, http.StatusOK)
	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/confirmPayment", map[string]any{"id": "p1", "amount": "330"}, http.StatusOK)
	require.Len(t, inv.Payments, 1)
	assert.True(t, inv.Payments[0].Confirmed)

	inv = c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/closePayment", map[string]any{"closure_reason": "OVERPAID"}, http.StatusOK)
	assert.Equal(t, "PAYMENTCLOSED", inv.Status)
	assert.Equal(t, "OVERPAID", inv.ClosureReason)

	resp, raw := c.do(http.MethodGet, "/api/invoices/inv-1/operations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ops []dto.OperationResponse
	require.NoError(t, json.Unmarshal(raw, &ops))
	assert.Len(t, ops, 10)
	assert.Equal(t, "closePayment", ops[len(ops)-1].Action)

	resp, raw = c.do(http.MethodGet, "/api/invoices/inv-1/pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="factura_F-1.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestInvoiceAPI_Errores(t *testing.T) {
	c := newClient(t, buildInvoiceApp(), pkgjwt.RoleAdmin)
	c.invoice(http.MethodPost, "/api/invoices", map[string]any{"id": "inv-1", "currency": "COP"}, http.StatusCreated)

	cases := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"transición inválida", http.MethodPost, "/api/invoices/inv-1/actions/accept", map[string]any{"pay_after": "2024-04-01"},
			http.StatusConflict, "INVALID_TRANSITION", "Invalid transition from DRAFT to ACCEPTED"},
		{"faltan campos", http.MethodPost, "/api/invoices/inv-1/actions/issue", map[string]any{},
			http.StatusUnprocessableEntity, "MISSING_FIELDS", ""},
		{"acción desconocida", http.MethodPost, "/api/invoices/inv-1/actions/pay", nil,
			http.StatusBadRequest, "VALIDATION", ""},
		{"precios inconsistentes", http.MethodPost, "/api/invoices/inv-1/line-items",
			map[string]any{"id": "l9", "quantity": "2", "tax_percent": "10", "unit_price_tax_excl": "100",
				"unit_price_tax_incl": "111", "total_price_tax_excl": "200", "total_price_tax_incl": "220"},
			http.StatusUnprocessableEntity, "PRICE_MISMATCH", ""},
		{"línea no encontrada", http.MethodPatch, "/api/invoices/inv-1/line-items/zz", map[string]any{"quantity": "1"},
			http.StatusNotFound, "NOT_FOUND", "Line item not found"},
		{"factura no encontrada", http.MethodGet, "/api/invoices/nope", nil,
			http.StatusNotFound, "NOT_FOUND", "Invoice not found"},
		{"pdf de borrador", http.MethodGet, "/api/invoices/inv-1/pdf", nil,
			http.StatusBadRequest, "VALIDATION", ""},
		{"estado de filtro inválido", http.MethodGet, "/api/invoices?status=PAGADA", nil,
			http.StatusBadRequest, "VALIDATION", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := c.do(tc.method, tc.path, tc.body)
			require.Equal(t, tc.wantStatus, resp.StatusCode, string(raw))
			e := errorBody(t, raw)
			assert.Equal(t, tc.wantCode, e.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, e.Message)
			}
		})
	}
}

func TestInvoiceAPI_PagoNoEncontrado(t *testing.T) {
	c := newClient(t, buildInvoiceApp(), pkgjwt.RoleAprobador)
	c.invoice(http.MethodPost, "/api/invoices", map[string]any{"id": "inv-1", "currency": "COP"}, http.StatusCreated)
	c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/issue", map[string]any{"invoice_no": "F-1", "date_issued": "2024-03-01"}, http.StatusOK)
	c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/accept", map[string]any{"pay_after": "2024-04-01"}, http.StatusOK)
	c.invoice(http.MethodPost, "/api/invoices/inv-1/actions/schedulePayment", map[string]any{"id": "p1", "processor_ref": "proc"}, http.StatusOK)

	resp, raw := c.do(http.MethodPost, "/api/invoices/inv-1/actions/reportPaymentIssue", map[string]any{"id": "p2", "issue": "rebote"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Payment not found", errorBody(t, raw).Message)
}

func TestInvoiceAPI_AislamientoPorEmpresa(t *testing.T) {
	app := buildInvoiceApp()
	owner := newClient(t, app, pkgjwt.RoleAdmin)
	owner.invoice(http.MethodPost, "/api/invoices", map[string]any{"id": "inv-1", "currency": "COP"}, http.StatusCreated)

	other := &client{t: t, app: app, auth: tokenFor(t, "otra-empresa", pkgjwt.RoleAdmin)}
	resp, _ := other.do(http.MethodGet, "/api/invoices/inv-1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := other.do(http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.InvoiceListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Empty(t, list.Items)
}

func TestInvoiceAPI_ConsultaSoloLectura(t *testing.T) {
	app := buildInvoiceApp()
	newClient(t, app, pkgjwt.RoleAdmin).invoice(http.MethodPost, "/api/invoices", map[string]any{"id": "inv-1", "currency": "COP"}, http.StatusCreated)

	reader := newClient(t, app, pkgjwt.RoleConsulta)
	resp, _ := reader.do(http.MethodPost, "/api/invoices/inv-1/actions/cancel", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = reader.do(http.MethodGet, "/api/invoices/inv-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw := reader.do(http.MethodGet, "/api/workflow/transitions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tr dto.TransitionsResponse
	require.NoError(t, json.Unmarshal(raw, &tr))
	assert.ElementsMatch(t, []string{"ISSUED", "CANCELLED"}, tr.Transitions["DRAFT"])
}
