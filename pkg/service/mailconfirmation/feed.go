package mailconfirmation

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/confirmd/confirmd/pkg/confirmd/mail"
	"github.com/confirmd/confirmd/pkg/service"
	"gopkg.in/inconshreveable/log15.v2"
)

// Feed consumes parsed notifications from the mail topic and drives the
// processor. Offsets are tracked through the consumer group, so
// notifications published while the daemon was down are still consumed.
// Notifications the processor could not associate with an outcome are
// forwarded to the unhandled topic, where the downloader can redeliver them
// or an operator can review them. A message is marked consumed only after
// it reached a terminal outcome or the unhandled topic.
type Feed struct {
	ctx       *service.Context
	log       log15.Logger
	processor *Processor
	group     sarama.ConsumerGroup
	producer  sarama.SyncProducer
}

// NewFeed creates a notification feed on the given consumer group
func NewFeed(ctx *service.Context, processor *Processor, group sarama.ConsumerGroup, producer sarama.SyncProducer) *Feed {
	return &Feed{
		ctx:       ctx,
		processor: processor,
		group:     group,
		producer:  producer,
		log: ctx.Log().New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/mailconfirmation",
		}),
	}
}

// ConsumerConfig returns the sarama config used for the mail feed
func ConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_4_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	return cfg
}

// Run consumes the mail topic until the service context is cancelled.
// Notifications are processed strictly one at a time.
func (f *Feed) Run() error {
	cfg := f.ctx.Config()
	go func() {
		for err := range f.group.Errors() {
			f.log.Error("mail feed error", log15.Ctx{"err": err})
		}
	}()
	f.log.Info("mail feed listening", log15.Ctx{
		"topic": cfg.Kafka.MailTopic,
		"group": cfg.Kafka.Group,
	})
	for {
		err := f.group.Consume(f.ctx, []string{cfg.Kafka.MailTopic}, f)
		if err != nil {
			f.log.Error("error consuming mail topic", log15.Ctx{
				"topic": cfg.Kafka.MailTopic,
				"err":   err,
			})
			return err
		}
		if f.ctx.Err() != nil {
			return nil
		}
	}
}

// Setup implements sarama.ConsumerGroupHandler
func (f *Feed) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler
func (f *Feed) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler
func (f *Feed) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := f.handleMessage(msg); err != nil {
			// leaving the offset unmarked keeps the notification for
			// the next session
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (f *Feed) handleMessage(msg *sarama.ConsumerMessage) error {
	mc := &mail.Content{}
	if err := json.Unmarshal(msg.Value, mc); err != nil {
		f.log.Error("malformed notification message", log15.Ctx{
			"offset": msg.Offset,
			"err":    err,
		})
		return nil
	}
	handled, err := f.processor.Process(mc, f.ctx.Config().Reconciliation.SkipPaidCheck)
	if err != nil {
		f.log.Error("error processing notification", log15.Ctx{
			"offset": msg.Offset,
			"err":    err,
		})
		return f.forwardUnhandled(msg)
	}
	if !handled {
		f.log.Warn("notification not handled", log15.Ctx{
			"offset": msg.Offset,
			"vs":     mc.VariableSymbol,
		})
		return f.forwardUnhandled(msg)
	}
	return nil
}

func (f *Feed) forwardUnhandled(msg *sarama.ConsumerMessage) error {
	topic := f.ctx.Config().Kafka.MailUnhandledTopic
	_, _, err := f.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Value),
	})
	if err != nil {
		f.log.Error("error forwarding unhandled notification", log15.Ctx{
			"topic":  topic,
			"offset": msg.Offset,
			"err":    err,
		})
	}
	return err
}
