// Package payment contains the payment domain model and its SQL layer
package payment

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// VariableSymbolMaxLen is the maximum allowed length of a variable symbol
	VariableSymbolMaxLen = 10
)

// Payment represents a monetary obligation tied to a user
type Payment struct {
	ID int64

	UserID             int64
	GatewayID          int64
	GatewayRecurrent   bool
	SubscriptionID     sql.NullInt64
	SubscriptionTypeID sql.NullInt64
	SalesFunnelID      sql.NullInt64

	Status         Status
	Amount         decimal.Decimal
	VariableSymbol string

	IP           string
	UserAgent    string
	Referer      sql.NullString
	Note         sql.NullString
	ErrorMessage sql.NullString

	CreatedAt  time.Time
	ModifiedAt time.Time
	PaidAt     sql.NullTime
}

func (p Payment) Valid() bool {
	return p.UserID != 0 && p.GatewayID != 0 && p.VariableSymbol != "" &&
		p.Status.Valid() && p.Amount.IsPositive()
}

// Item represents one line item of a payment
type Item struct {
	ID        int64
	PaymentID int64
	Name      string
	Amount    decimal.Decimal
	VAT       int
	Count     int
	Type      string
}
