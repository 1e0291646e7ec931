package payment

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStatusTransitions(t *testing.T) {
	Convey("Given the payment status state machine", t, func() {
		Convey("An awaiting payment can be confirmed", func() {
			for _, s := range []Status{StatusForm, StatusFail, StatusTimeout} {
				So(s.Payable(), ShouldBeTrue)
				So(s.CanTransitionTo(StatusPaid), ShouldBeTrue)
				So(s.CanTransitionTo(StatusFail), ShouldBeTrue)
			}
		})

		Convey("A settled payment can never be failed", func() {
			So(StatusPaid.CanTransitionTo(StatusFail), ShouldBeFalse)
			So(StatusPrepaid.CanTransitionTo(StatusFail), ShouldBeFalse)
		})

		Convey("Settled statuses are exactly paid and prepaid", func() {
			So(StatusPaid.Settled(), ShouldBeTrue)
			So(StatusPrepaid.Settled(), ShouldBeTrue)
			So(StatusForm.Settled(), ShouldBeFalse)
			So(StatusRefund.Settled(), ShouldBeFalse)
		})

		Convey("Other transitions pass through for the generic updater", func() {
			So(StatusPaid.CanTransitionTo(StatusRefund), ShouldBeTrue)
			So(StatusForm.CanTransitionTo(StatusImported), ShouldBeTrue)
			So(StatusPaid.CanTransitionTo(StatusPaid), ShouldBeTrue)
		})
	})
}

func TestStatusValid(t *testing.T) {
	Convey("Given status values", t, func() {
		Convey("Known statuses should be valid", func() {
			for _, s := range []Status{
				StatusForm, StatusPaid, StatusFail, StatusTimeout,
				StatusRefund, StatusImported, StatusPrepaid,
			} {
				So(s.Valid(), ShouldBeTrue)
			}
		})

		Convey("Unknown statuses should not", func() {
			So(Status("settled").Valid(), ShouldBeFalse)
			So(Status("").Valid(), ShouldBeFalse)
		})
	})
}

func TestStatusSQLMapping(t *testing.T) {
	Convey("Given a status", t, func() {
		Convey("When scanning from a byte slice", func() {
			var s Status
			err := s.Scan([]byte("paid"))

			Convey("It should hold the status value", func() {
				So(err, ShouldBeNil)
				So(s, ShouldEqual, StatusPaid)
			})
		})

		Convey("When scanning an unsupported type", func() {
			var s Status
			err := s.Scan(42)

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When converting to a driver value", func() {
			v, err := StatusTimeout.Value()

			Convey("It should be the plain string", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "timeout")
			})
		})
	})
}
