// Package maillog contains the reconciliation log for processed notifications
//
// Every notification ends up as at most one terminal log entry recording why
// it was accepted or rejected. The entry is accumulated in a Builder while
// the notification moves through the pipeline and committed exactly once at
// the exit branch.
package maillog

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/shopspring/decimal"
)

// State tags the terminal outcome of one processed notification
type State string

const (
	// StateWithoutVS - no variable symbol in the field nor the message text
	StateWithoutVS State = "without_vs"
	// StatePaymentNotFound - no payment matches any symbol variant
	StatePaymentNotFound State = "payment_not_found"
	// StateDifferentAmount - claimed amount differs from the payment amount
	StateDifferentAmount State = "different_amount"
	// StateDuplicatedPayment - another statement already confirmed this cycle
	StateDuplicatedPayment State = "duplicated_payment"
	// StateAlreadyPaid - the located payment is already settled
	StateAlreadyPaid State = "already_paid"
	// StateChangedToPaid - the notification confirmed the payment
	StateChangedToPaid State = "changed_to_paid"
	// StateAutoNewPayment - a stale cycle was copied and the copy confirmed
	StateAutoNewPayment State = "auto_new_payment"
	// StateNoSign - card notification without a signature value
	StateNoSign State = "no_sign"
)

// Scan implements the Scanner interface for sql
func (s *State) Scan(v interface{}) error {
	switch src := v.(type) {
	case []byte:
		*s = State(string(src))
		return nil
	case string:
		*s = State(src)
		return nil
	}
	return fmt.Errorf("cannot scan %T into %T", v, s)
}

// Value implements the Valuer interface for sql
func (s State) Value() (driver.Value, error) {
	return driver.Value(string(s)), nil
}

func (s State) String() string {
	return string(s)
}

// Entry is one reconciliation log row
type Entry struct {
	ID             int64
	DeliveredAt    time.Time
	VariableSymbol sql.NullString
	PaymentID      sql.NullInt64
	Amount         decimal.Decimal
	Message        string
	State          State
	CreatedAt      time.Time
}

// Builder accumulates an Entry while a notification is processed.
//
// The builder itself never writes anywhere. Snapshot produces the entry for
// a given terminal state; the caller commits it through its log store.
type Builder struct {
	entry Entry
}

// NewBuilder starts a log entry for a notification delivered at the given time
func NewBuilder(deliveredAt time.Time) *Builder {
	return &Builder{entry: Entry{DeliveredAt: deliveredAt}}
}

func (b *Builder) SetDeliveredAt(t time.Time) *Builder {
	b.entry.DeliveredAt = t
	return b
}

func (b *Builder) SetMessage(msg string) *Builder {
	b.entry.Message = msg
	return b
}

func (b *Builder) SetAmount(amount decimal.Decimal) *Builder {
	b.entry.Amount = amount
	return b
}

func (b *Builder) SetVariableSymbol(vs string) *Builder {
	b.entry.VariableSymbol = sql.NullString{String: vs, Valid: true}
	return b
}

// SetPayment links the located payment. Re-linking overwrites; the builder
// follows the payment the pipeline currently targets, e.g. after a stale
// payment was copied.
func (b *Builder) SetPayment(p *payment.Payment) *Builder {
	b.entry.PaymentID = sql.NullInt64{Int64: p.ID, Valid: true}
	return b
}

// Snapshot returns the accumulated entry tagged with the given state
func (b *Builder) Snapshot(state State) Entry {
	e := b.entry
	e.State = state
	return e
}
