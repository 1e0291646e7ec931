package maillog

import (
	"database/sql"
	"time"
)

const insertEntry = `
INSERT INTO parsed_mail_log
(delivered_at, variable_symbol, payment_id, amount, message, state, created_at)
VALUES
(?, ?, ?, ?, ?, ?, ?)
`

// InsertEntryDB commits one reconciliation log entry
func InsertEntryDB(db *sql.DB, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	stmt, err := db.Prepare(insertEntry)
	if err != nil {
		return err
	}
	res, err := stmt.Exec(
		e.DeliveredAt,
		e.VariableSymbol,
		e.PaymentID,
		e.Amount,
		e.Message,
		e.State,
		e.CreatedAt,
	)
	stmt.Close()
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

const countByStateSince = `
SELECT COUNT(*) FROM parsed_mail_log
WHERE
	variable_symbol = ?
	AND
	state = ?
	AND
	created_at >= ?
`

// CountByStateSinceDB counts log entries for the given variable symbol that
// reached the given state at or after the given time
func CountByStateSinceDB(db *sql.DB, variableSymbol string, state State, since time.Time) (int64, error) {
	var count int64
	err := db.QueryRow(countByStateSince, variableSymbol, state, since).Scan(&count)
	return count, err
}
