package payment

import (
	"database/sql/driver"
	"fmt"
)

// Status represents a payment status
type Status string

const (
	// StatusForm is the initial status of every created payment
	StatusForm Status = "form"
	// StatusPaid marks a payment confirmed by a bank or card notification
	StatusPaid Status = "paid"
	// StatusFail marks a payment rejected by the gateway or the bank
	StatusFail Status = "fail"
	// StatusTimeout marks a payment whose confirmation never arrived
	StatusTimeout Status = "timeout"
	// StatusRefund marks a payment returned to the user
	StatusRefund Status = "refund"
	// StatusImported marks a payment created by a bulk import
	StatusImported Status = "imported"
	// StatusPrepaid marks a payment settled from a user credit balance
	StatusPrepaid Status = "prepaid"
)

// Scan implements the Scanner interface for sql
func (s *Status) Scan(v interface{}) error {
	switch src := v.(type) {
	case []byte:
		*s = Status(string(src))
		return nil
	case string:
		*s = Status(src)
		return nil
	}
	return fmt.Errorf("cannot scan %T into %T", v, s)
}

// Value implements the Valuer interface for sql
func (s Status) Value() (driver.Value, error) {
	return driver.Value(s.String()), nil
}

func (s Status) String() string {
	return string(s)
}

// Valid returns true when s is one of the known payment statuses
func (s Status) Valid() bool {
	switch s {
	case StatusForm, StatusPaid, StatusFail, StatusTimeout,
		StatusRefund, StatusImported, StatusPrepaid:
		return true
	}
	return false
}

// Settled returns true when the payment money has been received.
//
// A settled payment must never be failed afterwards. A delayed failure
// notification could otherwise clobber a payment already confirmed by a
// faster channel.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusPrepaid
}

// Payable returns true when the payment is still awaiting a confirmation
func (s Status) Payable() bool {
	switch s {
	case StatusForm, StatusFail, StatusTimeout:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may be changed to next.
//
// The only forbidden move is settled to fail; all other transitions pass
// through for the generic updater, including same-status no-ops.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Settled() && next == StatusFail {
		return false
	}
	return true
}
