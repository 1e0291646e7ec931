// Package event emits payment events to the message bus
//
// Emission is fire-and-forget: delivery guarantees belong to the bus, a
// failed emit is logged and never propagated to the caller.
package event

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// TypeNewPayment announces a created payment
	TypeNewPayment = "new-payment"
	// TypePaymentStatusChange announces a committed status transition
	TypePaymentStatusChange = "payment-status-change"
)

// Message is the envelope for all bus messages
type Message struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	Payload   interface{} `json:"payload"`
}

// NewPayment is the payload of a TypeNewPayment message
type NewPayment struct {
	PaymentID int64 `json:"payment_id"`
}

// PaymentStatusChange is the payload of a TypePaymentStatusChange message
type PaymentStatusChange struct {
	PaymentID     int64  `json:"payment_id"`
	SalesFunnelID *int64 `json:"sales_funnel_id,omitempty"`
	SendEmail     bool   `json:"send_email"`
}

// Emitter publishes payment events to a single topic, keyed by payment id
// so that events for one payment stay ordered
type Emitter struct {
	producer sarama.SyncProducer
	topic    string
	log      log15.Logger
}

// NewEmitter creates an event emitter publishing to the given topic
func NewEmitter(producer sarama.SyncProducer, topic string, log log15.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		topic:    topic,
		log: log.New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/event",
		}),
	}
}

// ProducerConfig returns the sarama config used for the event producer
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	return cfg
}

// EmitNewPayment announces a created payment
func (e *Emitter) EmitNewPayment(paymentID int64) {
	e.emit(paymentID, TypeNewPayment, NewPayment{PaymentID: paymentID})
}

// EmitPaymentStatusChange announces a committed status transition
func (e *Emitter) EmitPaymentStatusChange(ev PaymentStatusChange) {
	e.emit(ev.PaymentID, TypePaymentStatusChange, ev)
}

func (e *Emitter) emit(paymentID int64, typ string, payload interface{}) {
	msg := Message{
		ID:        uuid.NewString(),
		Type:      typ,
		CreatedAt: time.Now(),
		Payload:   payload,
	}
	value, err := json.Marshal(msg)
	if err != nil {
		e.log.Error("error marshalling event", log15.Ctx{"type": typ, "err": err})
		return
	}
	_, _, err = e.producer.SendMessage(&sarama.ProducerMessage{
		Topic: e.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(paymentID, 10)),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		e.log.Error("error emitting event", log15.Ctx{
			"type":      typ,
			"paymentID": paymentID,
			"err":       err,
		})
		return
	}
	e.log.Debug("event emitted", log15.Ctx{"type": typ, "paymentID": paymentID})
}
