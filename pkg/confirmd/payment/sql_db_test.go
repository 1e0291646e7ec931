package payment_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/confirmd/confirmd/pkg/testutil"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPaymentLifecycleOnDB(t *testing.T) {
	Convey("Given a payment DB connection", t, testutil.WithPaymentDB(t, func(db *sql.DB) {
		tx, err := db.Begin()
		So(err, ShouldBeNil)
		Reset(func() {
			tx.Rollback()
		})

		now := time.Now()
		res, err := tx.Exec(
			"INSERT INTO payment_gateway (name, code, is_recurrent, created_at, modified_at) VALUES (?, ?, ?, ?, ?)",
			"test gateway", "test-gw", false, now, now,
		)
		So(err, ShouldBeNil)
		gatewayID, err := res.LastInsertId()
		So(err, ShouldBeNil)

		Convey("When inserting and confirming a payment", func() {
			p := &payment.Payment{
				UserID:         7,
				GatewayID:      gatewayID,
				Status:         payment.StatusForm,
				Amount:         decimal.RequireFromString("100.00"),
				VariableSymbol: "9900000042",
				CreatedAt:      now,
				ModifiedAt:     now,
			}
			err := payment.InsertPaymentTx(tx, p)
			So(err, ShouldBeNil)
			So(p.ID, ShouldBeGreaterThan, 0)

			err = payment.UpdateStatusTx(tx, p.ID, payment.StatusPaid, sql.NullString{}, sql.NullString{})
			So(err, ShouldBeNil)

			Convey("The reloaded payment should be settled with paid_at set", func() {
				reloaded, err := payment.PaymentByIDTx(tx, p.ID)
				So(err, ShouldBeNil)
				So(reloaded.Status, ShouldEqual, payment.StatusPaid)
				So(reloaded.PaidAt.Valid, ShouldBeTrue)
				So(reloaded.Amount.Equal(p.Amount), ShouldBeTrue)
			})

			Convey("Failing the settled payment should be refused", func() {
				err := payment.UpdateStatusTx(tx, p.ID, payment.StatusFail, sql.NullString{}, sql.NullString{})
				So(err, ShouldEqual, payment.ErrTransitionForbidden)
			})
		})
	}))
}
