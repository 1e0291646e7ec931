package mailconfirmation

import (
	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/shopspring/decimal"
)

// ResultOK is the gateway result code of a successful charge
const ResultOK = "OK"

// CompletionRequest is the field bag handed to the gateway when finalizing
// a card payment. Every field the notification carried is passed explicitly;
// the gateway must not reach into any ambient request state.
type CompletionRequest struct {
	Sign      string
	HMAC      string
	Amount    decimal.Decimal
	Currency  string
	Timestamp string
	CC        string
	TID       string
	VS        string
	AC        string
	Res       string
	RC        string

	// CID and TRes are only set for the processor-side notification of a
	// recurring charge
	CID  string
	TRes string
}

// GatewayCompleter finalizes a card payment with its gateway.
//
// The completer mutates the payment to its final status and may emit further
// status-change events of its own. It returns the payment as left by the
// gateway.
type GatewayCompleter interface {
	Complete(p *payment.Payment, req CompletionRequest) (*payment.Payment, error)
}

// StatusCompleter is the default GatewayCompleter. The notification already
// carries the gateway's verdict, so completion settles the payment directly
// and lets the customer email go out with the status change.
type StatusCompleter struct {
	payments PaymentStore
}

// NewStatusCompleter creates a completer settling payments on the given store
func NewStatusCompleter(payments PaymentStore) *StatusCompleter {
	return &StatusCompleter{payments: payments}
}

// Complete settles the payment
func (c *StatusCompleter) Complete(p *payment.Payment, req CompletionRequest) (*payment.Payment, error) {
	return c.payments.UpdateStatus(p, payment.StatusPaid, true, "")
}
