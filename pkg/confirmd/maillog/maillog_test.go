package maillog

import (
	"testing"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuilder(t *testing.T) {
	Convey("Given a log builder for a delivered notification", t, func() {
		deliveredAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		b := NewBuilder(deliveredAt)

		Convey("When accumulating the decision trail", func() {
			b.SetMessage("vs:123 monthly").
				SetAmount(decimal.RequireFromString("9.90")).
				SetVariableSymbol("123")

			Convey("A snapshot should carry the accumulated fields and the state", func() {
				e := b.Snapshot(StateWithoutVS)
				So(e.DeliveredAt, ShouldEqual, deliveredAt)
				So(e.Message, ShouldEqual, "vs:123 monthly")
				So(e.VariableSymbol.String, ShouldEqual, "123")
				So(e.State, ShouldEqual, StateWithoutVS)
				So(e.PaymentID.Valid, ShouldBeFalse)
			})

			Convey("Snapshots should be independent values", func() {
				first := b.Snapshot(StateDifferentAmount)
				b.SetPayment(&payment.Payment{ID: 42})
				second := b.Snapshot(StateChangedToPaid)

				So(first.State, ShouldEqual, StateDifferentAmount)
				So(first.PaymentID.Valid, ShouldBeFalse)
				So(second.State, ShouldEqual, StateChangedToPaid)
				So(second.PaymentID.Int64, ShouldEqual, 42)
			})
		})

		Convey("When re-linking the payment after a stale copy", func() {
			b.SetPayment(&payment.Payment{ID: 1})
			b.SetPayment(&payment.Payment{ID: 2})

			Convey("The builder should follow the newest payment", func() {
				So(b.Snapshot(StateAutoNewPayment).PaymentID.Int64, ShouldEqual, 2)
			})
		})
	})
}
