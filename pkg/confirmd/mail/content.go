// Package mail contains the parsed notification content model
//
// A Content value is one already-parsed bank statement or card gateway
// confirmation message. Parsing the raw mail transport is not handled here;
// the downloader collaborator delivers Content values ready for
// reconciliation.
package mail

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CardTimeFormat is the fixed textual timestamp format used by the card
// gateway notifications (day, month, year, hour, minute, second).
const CardTimeFormat = "02012006150405"

// Content is one parsed notification
type Content struct {
	// Sign is nil for bank account statements. Card gateway notifications
	// always carry the field, possibly with an empty value.
	Sign *string `json:"sign"`

	// TransactionDate is the raw transaction timestamp: epoch seconds on
	// the bank path, CardTimeFormat on the card path.
	TransactionDate string `json:"transaction_date"`

	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	ReceiverMessage string          `json:"receiver_message"`
	VariableSymbol  string          `json:"vs"`

	// card gateway fields
	Res string `json:"res"`
	RC  string `json:"rc"`
	TID string `json:"tid"`
	CC  string `json:"cc"`
	AC  string `json:"ac"`
	CID string `json:"cid"`
}

// FromCard returns true when the notification came through the card
// gateway channel
func (c *Content) FromCard() bool {
	return c.Sign != nil
}

var vsPattern = regexp.MustCompile(`(?i)vs[:.\-_ ]?([0-9]{1,10})`)

// ExtractVariableSymbol returns the variable symbol of the notification.
//
// An explicit symbol field wins and is returned unmodified. Otherwise the
// free-text receiver message is searched for a "vs" label followed by up to
// ten digits. A missing symbol is a normal negative result, not an error.
func (c *Content) ExtractVariableSymbol() (string, bool) {
	if c.VariableSymbol != "" {
		return c.VariableSymbol, true
	}
	m := vsPattern.FindStringSubmatch(c.ReceiverMessage)
	if m == nil {
		return "", false
	}
	c.VariableSymbol = m[1]
	return m[1], true
}

// BankTransactionTime derives the transaction timestamp of a bank
// statement from the raw epoch seconds field. An absent or malformed field
// falls back to the current time.
func (c *Content) BankTransactionTime() time.Time {
	if c.TransactionDate == "" {
		return time.Now()
	}
	sec, err := strconv.ParseInt(c.TransactionDate, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(sec, 0)
}

// CardTransactionTime derives the transaction timestamp of a card gateway
// notification from its fixed textual format
func (c *Content) CardTransactionTime() (time.Time, error) {
	return time.ParseInLocation(CardTimeFormat, c.TransactionDate, time.Local)
}
