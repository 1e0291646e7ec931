package payment

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/vsymbol"
	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrTransitionForbidden is returned when a settled payment would be failed
	ErrTransitionForbidden = errors.New("forbidden status transition")
)

const selectPayment = `
SELECT
	p.id,
	p.user_id,
	p.payment_gateway_id,
	g.is_recurrent,
	p.subscription_id,
	p.subscription_type_id,
	p.sales_funnel_id,
	p.status,
	p.amount,
	p.variable_symbol,
	p.ip,
	p.user_agent,
	p.referer,
	p.note,
	p.error_message,
	p.created_at,
	p.modified_at,
	p.paid_at
FROM payment AS p
INNER JOIN payment_gateway AS g ON
	g.id = p.payment_gateway_id
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row scanner) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.GatewayID,
		&p.GatewayRecurrent,
		&p.SubscriptionID,
		&p.SubscriptionTypeID,
		&p.SalesFunnelID,
		&p.Status,
		&p.Amount,
		&p.VariableSymbol,
		&p.IP,
		&p.UserAgent,
		&p.Referer,
		&p.Note,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.ModifiedAt,
		&p.PaidAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

const selectPaymentByID = selectPayment + `
WHERE
	p.id = ?
`

func PaymentByIDTx(db *sql.Tx, id int64) (*Payment, error) {
	return scanPayment(db.QueryRow(selectPaymentByID, id))
}

func PaymentByIDDB(db *sql.DB, id int64) (*Payment, error) {
	return scanPayment(db.QueryRow(selectPaymentByID, id))
}

// LastByVariableSymbolDB returns the most recently created payment matching
// any accepted variant encoding of the given variable symbol
func LastByVariableSymbolDB(db *sql.DB, variableSymbol string) (*Payment, error) {
	variants := vsymbol.Variants(variableSymbol)
	if len(variants) == 0 {
		return nil, ErrPaymentNotFound
	}
	q := selectPayment + `
WHERE
	p.variable_symbol IN (` + placeholders(len(variants)) + `)
ORDER BY p.created_at DESC
LIMIT 1
`
	args := make([]interface{}, len(variants))
	for i, v := range variants {
		args[i] = v
	}
	return scanPayment(db.QueryRow(q, args...))
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

const insertPayment = `
INSERT INTO payment
(user_id, payment_gateway_id, subscription_id, subscription_type_id, sales_funnel_id,
 status, amount, variable_symbol, ip, user_agent, referer, note, created_at, modified_at)
VALUES
(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func InsertPaymentTx(db *sql.Tx, p *Payment) error {
	stmt, err := db.Prepare(insertPayment)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(
		p.UserID,
		p.GatewayID,
		p.SubscriptionID,
		p.SubscriptionTypeID,
		p.SalesFunnelID,
		p.Status,
		p.Amount,
		p.VariableSymbol,
		p.IP,
		p.UserAgent,
		p.Referer,
		p.Note,
		p.CreatedAt,
		p.ModifiedAt,
	)
	stmt.Close()
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

const insertItem = `
INSERT INTO payment_item
(payment_id, name, amount, vat, count, type)
VALUES
(?, ?, ?, ?, ?, ?)
`

// InsertItemsTx inserts the line items for the payment with the given id
func InsertItemsTx(db *sql.Tx, paymentID int64, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := db.Prepare(insertItem)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := range items {
		res, err := stmt.Exec(
			paymentID,
			items[i].Name,
			items[i].Amount,
			items[i].VAT,
			items[i].Count,
			items[i].Type,
		)
		if err != nil {
			return err
		}
		items[i].ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
		items[i].PaymentID = paymentID
	}
	return nil
}

const selectItems = `
SELECT id, payment_id, name, amount, vat, count, type
FROM payment_item
WHERE payment_id = ?
ORDER BY id
`

// ItemsByPaymentDB returns the line items of the payment with the given id
func ItemsByPaymentDB(db *sql.DB, paymentID int64) ([]Item, error) {
	rows, err := db.Query(selectItems, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		err = rows.Scan(&it.ID, &it.PaymentID, &it.Name, &it.Amount, &it.VAT, &it.Count, &it.Type)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const copyPaymentItems = `
INSERT INTO payment_item
(payment_id, name, amount, vat, count, type)
SELECT ?, name, amount, vat, count, type
FROM payment_item
WHERE payment_id = ?
`

// CopyPaymentTx creates a fresh form-status copy of the given payment.
//
// The copy carries the same amount, user, gateway, subscription type and
// variable symbol, along with copies of the payment items. Request metadata
// is blanked; a copy is never tied to a browser session.
func CopyPaymentTx(db *sql.Tx, p *Payment) (*Payment, error) {
	now := time.Now()
	cp := &Payment{
		UserID:             p.UserID,
		GatewayID:          p.GatewayID,
		GatewayRecurrent:   p.GatewayRecurrent,
		SubscriptionTypeID: p.SubscriptionTypeID,
		Status:             StatusForm,
		Amount:             p.Amount,
		VariableSymbol:     p.VariableSymbol,
		CreatedAt:          now,
		ModifiedAt:         now,
	}
	err := InsertPaymentTx(db, cp)
	if err != nil {
		return nil, err
	}
	stmt, err := db.Prepare(copyPaymentItems)
	if err != nil {
		return nil, err
	}
	_, err = stmt.Exec(cp.ID, p.ID)
	stmt.Close()
	if err != nil {
		return nil, err
	}
	return cp, nil
}

const selectStatusForUpdate = `
SELECT status, paid_at FROM payment WHERE id = ? FOR UPDATE
`

const updateStatus = `
UPDATE payment
SET status = ?, modified_at = ?, paid_at = ?,
	note = COALESCE(?, note), error_message = COALESCE(?, error_message)
WHERE id = ?
`

// UpdateStatusTx moves the payment identified by id into the next status.
//
// The current status is read under a row lock so that concurrent
// notifications for the same payment serialize on the record. paid_at is set
// exactly once, on the first transition into a settled status, and never
// cleared. A settled payment cannot be moved to fail; in that case
// ErrTransitionForbidden is returned and the row is left untouched.
func UpdateStatusTx(db *sql.Tx, id int64, next Status, note, errorMessage sql.NullString) error {
	var current Status
	var paidAt sql.NullTime
	err := db.QueryRow(selectStatusForUpdate, id).Scan(&current, &paidAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPaymentNotFound
		}
		return err
	}
	if !current.CanTransitionTo(next) {
		return ErrTransitionForbidden
	}
	if next.Settled() && !paidAt.Valid {
		paidAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	stmt, err := db.Prepare(updateStatus)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(next, time.Now(), paidAt, note, errorMessage, id)
	stmt.Close()
	return err
}

const selectUnconfirmedPayments = selectPayment + `
WHERE
	p.status = ?
	AND
	p.created_at >= ?
ORDER BY p.created_at DESC
`

// UnconfirmedPaymentsDB returns form-status payments created since the given time
func UnconfirmedPaymentsDB(db *sql.DB, from time.Time) ([]*Payment, error) {
	rows, err := db.Query(selectUnconfirmedPayments, StatusForm, from)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

const selectBySalesFunnelURLKey = selectPayment + `
INNER JOIN sales_funnel AS f ON
	f.id = p.sales_funnel_id
WHERE
	f.url_key = ?
ORDER BY p.created_at DESC
`

func BySalesFunnelURLKeyDB(db *sql.DB, urlKey string) ([]*Payment, error) {
	rows, err := db.Query(selectBySalesFunnelURLKey, urlKey)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

const selectPaidBetween = selectPayment + `
WHERE
	p.status = ?
	AND
	p.paid_at > ?
	AND
	p.paid_at < ?
`

// PaidBetweenDB returns payments settled inside the given interval
func PaidBetweenDB(db *sql.DB, from, to time.Time) ([]*Payment, error) {
	rows, err := db.Query(selectPaidBetween, StatusPaid, from, to)
	if err != nil {
		return nil, err
	}
	return scanPaymentRows(rows)
}

func scanPaymentRows(rows *sql.Rows) ([]*Payment, error) {
	defer rows.Close()
	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const selectTotalAmountSum = `
SELECT COALESCE(SUM(amount), 0) FROM payment WHERE status = ?
`

// TotalAmountSumDB returns the sum of all settled payment amounts
func TotalAmountSumDB(db *sql.DB) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := db.QueryRow(selectTotalAmountSum, StatusPaid).Scan(&sum)
	return sum, err
}

const selectTotalCount = `
SELECT COUNT(*) FROM payment
`

// TotalCountDB returns the number of payment records
func TotalCountDB(db *sql.DB) (int64, error) {
	var count int64
	err := db.QueryRow(selectTotalCount).Scan(&count)
	return count, err
}
