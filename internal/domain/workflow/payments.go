package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/invoice-lifecycle/internal/domain"
	"github.com/jhoicas/invoice-lifecycle/internal/domain/entity"
)

// Los pagos se crean en schedulePayment y se completan en las transiciones
// siguientes; los registros se modifican en su lugar, nunca se reemplazan.

func schedulePayment(inv *entity.Invoice, in *SchedulePaymentInput) error {
	if inv.PaymentIndex(in.ID) >= 0 {
		return &domain.DuplicateIDError{Kind: "payment", ID: in.ID}
	}
	inv.Payments = append(inv.Payments, entity.Payment{
		ID:           in.ID,
		ProcessorRef: in.ProcessorRef,
		Amount:       decimal.Zero,
	})
	return nil
}

func registerPaymentTx(inv *entity.Invoice, in *RegisterPaymentTxInput) error {
	p, err := findPayment(inv, in.ID)
	if err != nil {
		return err
	}
	p.TxnRef = in.TxRef
	p.PaymentDate = in.Timestamp
	return nil
}

func reportPaymentIssue(inv *entity.Invoice, in *ReportPaymentIssueInput) error {
	p, err := findPayment(inv, in.ID)
	if err != nil {
		return err
	}
	p.Issue = in.Issue
	return nil
}

func confirmPayment(inv *entity.Invoice, in *ConfirmPaymentInput) error {
	p, err := findPayment(inv, in.ID)
	if err != nil {
		return err
	}
	p.Confirmed = true
	p.Amount = *in.Amount
	return nil
}

// findPayment devuelve un puntero al registro dentro de inv.Payments.
func findPayment(inv *entity.Invoice, id string) (*entity.Payment, error) {
	idx := inv.PaymentIndex(id)
	if idx < 0 {
		return nil, &domain.NotFoundError{Kind: "payment", ID: id}
	}
	return &inv.Payments[idx], nil
}
