package event

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"
)

func discardLog() log15.Logger {
	log := log15.New()
	log.SetHandler(log15.DiscardHandler())
	return log
}

func TestEmitter(t *testing.T) {
	Convey("Given an emitter on a mock producer", t, func() {
		producer := mocks.NewSyncProducer(t, ProducerConfig())
		e := NewEmitter(producer, "payment-events", discardLog())
		Reset(func() {
			So(producer.Close(), ShouldBeNil)
		})

		Convey("When emitting a status change", func() {
			var sent Message
			producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
				value, err := msg.Value.Encode()
				if err != nil {
					return err
				}
				return json.Unmarshal(value, &sent)
			})

			e.EmitPaymentStatusChange(PaymentStatusChange{
				PaymentID: 42,
				SendEmail: true,
			})

			Convey("The message should carry the payload and an id", func() {
				So(sent.Type, ShouldEqual, TypePaymentStatusChange)
				So(sent.ID, ShouldNotBeBlank)
				payload, ok := sent.Payload.(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(payload["payment_id"], ShouldEqual, 42)
				So(payload["send_email"], ShouldEqual, true)
			})
		})

		Convey("When the bus is unavailable", func() {
			producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

			Convey("Emission should not panic nor propagate the error", func() {
				So(func() { e.EmitNewPayment(7) }, ShouldNotPanic)
			})
		})
	})
}
