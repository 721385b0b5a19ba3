package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payment registro de pago creado por schedulePayment y completado por transiciones posteriores.
type Payment struct {
	ID           string          `json:"id"`
	ProcessorRef string          `json:"processor_ref"`
	PaymentDate  string          `json:"payment_date"`
	TxnRef       string          `json:"txn_ref"`
	Confirmed    bool            `json:"confirmed"`
	Issue        string          `json:"issue"`
	Amount       decimal.Decimal `json:"amount"`
}

// Rejection rechazo registrado por reject; Final=true bloquea reinstate.
type Rejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Final  bool   `json:"final"`
}

// Operation entrada del log de operaciones aplicadas a una factura (append-only).
type Operation struct {
	ID        string
	InvoiceID string
	Revision  int64
	Action    string
	Payload   json.RawMessage
	UserID    string
	CreatedAt time.Time
}
