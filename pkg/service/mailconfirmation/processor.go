// Package mailconfirmation reconciles payments against parsed notifications
//
// One notification is processed at a time, to a terminal reconciliation log
// outcome or a deferral. The boolean result tells the caller whether the
// notification was definitively handled; on false the caller may requeue it.
package mailconfirmation

import (
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/mail"
	"github.com/confirmd/confirmd/pkg/confirmd/maillog"
	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"gopkg.in/inconshreveable/log15.v2"
)

// StaleWindow is the cutoff beyond which a settled payment is treated as a
// new billing cycle rather than re-confirmed. It also bounds the duplicate
// confirmation lookback.
const StaleWindow = 10 * 24 * time.Hour

// PaymentStore describes the payment operations the processor needs
type PaymentStore interface {
	LastByVariableSymbol(variableSymbol string) (*payment.Payment, error)
	CopyPayment(p *payment.Payment) (*payment.Payment, error)
	UpdateStatus(p *payment.Payment, next payment.Status, sendEmail bool, note string, salesFunnelID ...int64) (*payment.Payment, error)
}

// LogStore describes the reconciliation log operations the processor needs
type LogStore interface {
	Commit(e maillog.Entry) error
	CountConfirmedSince(variableSymbol string, since time.Time) (int64, error)
}

// Processor is the reconciliation engine
type Processor struct {
	payments  PaymentStore
	logs      LogStore
	completer GatewayCompleter
	log       log15.Logger
}

// NewProcessor creates a reconciliation processor
func NewProcessor(payments PaymentStore, logs LogStore, completer GatewayCompleter, log log15.Logger) *Processor {
	return &Processor{
		payments:  payments,
		logs:      logs,
		completer: completer,
		log: log.New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/mailconfirmation",
		}),
	}
}

// Process reconciles one parsed notification against the known payments.
//
// It returns true when the notification was definitively handled, including
// negative outcomes such as a failed card charge or a duplicate statement.
// It returns false when no outcome could be associated (missing identifier,
// unknown payment, deferred companion notification); such notifications may
// be requeued by the caller, handled ones must not.
//
// skipCheck skips the already-paid short-circuit on the card path for
// callers with independent assurance of freshness.
func (pr *Processor) Process(mc *mail.Content, skipCheck bool) (bool, error) {
	if !mc.FromCard() {
		b := maillog.NewBuilder(mc.BankTransactionTime())
		return pr.processBankAccountMovement(mc, b)
	}
	deliveredAt, err := mc.CardTransactionTime()
	if err != nil {
		pr.log.Warn("malformed card transaction date", log15.Ctx{
			"transactionDate": mc.TransactionDate,
			"err":             err,
		})
		return false, err
	}
	b := maillog.NewBuilder(deliveredAt)
	return pr.processCardMovement(mc, b, skipCheck)
}

func (pr *Processor) commit(b *maillog.Builder, state maillog.State) error {
	return pr.logs.Commit(b.Snapshot(state))
}

func (pr *Processor) processBankAccountMovement(mc *mail.Content, b *maillog.Builder) (bool, error) {
	transactionTime := mc.BankTransactionTime()
	log := pr.log.New(log15.Ctx{
		"method":   "processBankAccountMovement",
		"amount":   mc.Amount,
		"currency": mc.Currency,
	})
	b.SetMessage(mc.ReceiverMessage).SetAmount(mc.Amount)

	vs, ok := mc.ExtractVariableSymbol()
	if !ok {
		log.Info("notification without variable symbol")
		return false, pr.commit(b, maillog.StateWithoutVS)
	}
	b.SetVariableSymbol(vs)
	log = log.New(log15.Ctx{"vs": vs})

	p, err := pr.payments.LastByVariableSymbol(vs)
	if err == payment.ErrPaymentNotFound {
		log.Info("no payment for variable symbol")
		return false, pr.commit(b, maillog.StatePaymentNotFound)
	}
	if err != nil {
		return false, err
	}
	b.SetPayment(p)

	if !p.Amount.Equal(mc.Amount) {
		err = pr.commit(b, maillog.StateDifferentAmount)
		if err != nil {
			return false, err
		}
	}
	// never approve a payment on an underpaying statement
	if p.Amount.GreaterThan(mc.Amount) {
		log.Warn("underpaying statement", log15.Ctx{
			"paymentID":     p.ID,
			"paymentAmount": p.Amount,
		})
		return false, nil
	}

	threshold := transactionTime.Add(-StaleWindow)

	createdNewPayment := false
	if p.Status.Settled() && p.CreatedAt.Before(threshold) {
		// a stale settled payment on this symbol means a new billing
		// cycle; confirm a fresh copy instead
		p, err = pr.payments.CopyPayment(p)
		if err != nil {
			return false, err
		}
		b.SetPayment(p)
		createdNewPayment = true
	}

	confirmed, err := pr.logs.CountConfirmedSince(p.VariableSymbol, threshold)
	if err != nil {
		return false, err
	}
	if confirmed > 0 {
		log.Info("cycle already confirmed by another statement", log15.Ctx{
			"paymentID": p.ID,
		})
		return true, pr.commit(b, maillog.StateDuplicatedPayment)
	}

	if p.Status.Settled() {
		return true, pr.commit(b, maillog.StateAlreadyPaid)
	}

	if p.Status.Payable() {
		_, err = pr.payments.UpdateStatus(p, payment.StatusPaid, true, "")
		if err != nil {
			return false, err
		}
		state := maillog.StateChangedToPaid
		if createdNewPayment {
			state = maillog.StateAutoNewPayment
		}
		log.Info("payment confirmed", log15.Ctx{
			"paymentID": p.ID,
			"state":     state,
		})
		return true, pr.commit(b, state)
	}

	// refund/imported payments have nothing left to confirm
	return true, nil
}

func (pr *Processor) processCardMovement(mc *mail.Content, b *maillog.Builder, skipCheck bool) (bool, error) {
	log := pr.log.New(log15.Ctx{
		"method":   "processCardMovement",
		"amount":   mc.Amount,
		"currency": mc.Currency,
	})
	b.SetMessage(mc.ReceiverMessage).SetAmount(mc.Amount)

	vs, ok := mc.ExtractVariableSymbol()
	if !ok {
		log.Info("notification without variable symbol")
		return false, pr.commit(b, maillog.StateWithoutVS)
	}
	b.SetVariableSymbol(vs)
	log = log.New(log15.Ctx{"vs": vs})

	if *mc.Sign == "" {
		log.Info("missing sign")
		return false, pr.commit(b, maillog.StateNoSign)
	}

	p, err := pr.payments.LastByVariableSymbol(vs)
	if err == payment.ErrPaymentNotFound {
		log.Info("no payment for variable symbol")
		return false, pr.commit(b, maillog.StatePaymentNotFound)
	}
	if err != nil {
		return false, err
	}
	b.SetPayment(p)

	if !skipCheck && p.Status.Settled() {
		return true, pr.commit(b, maillog.StateAlreadyPaid)
	}

	if mc.Res != ResultOK {
		_, err = pr.payments.UpdateStatus(p, payment.StatusFail, false, "non-OK RES mail param: "+mc.Res)
		if err != nil && err != payment.ErrTransitionForbidden {
			return false, err
		}
		log.Info("non-OK result, payment failed", log15.Ctx{
			"paymentID": p.ID,
			"res":       mc.Res,
		})
		return true, nil
	}

	if p.GatewayRecurrent && mc.CID == "" {
		// the card network and the processor both report one recurring
		// charge; without the charge id this is the incomplete half, wait
		// for the companion notification
		log.Info("recurrent gateway without CID, halting", log15.Ctx{
			"paymentID": p.ID,
		})
		return false, nil
	}

	req := CompletionRequest{
		Sign:      *mc.Sign,
		HMAC:      *mc.Sign,
		Amount:    mc.Amount,
		Currency:  mc.Currency,
		Timestamp: mc.TransactionDate,
		CC:        mc.CC,
		TID:       mc.TID,
		VS:        vs,
		AC:        mc.AC,
		Res:       mc.Res,
		RC:        mc.RC,
	}
	if mc.CID != "" {
		req.CID = mc.CID
		req.TRes = ResultOK
	}

	completed, err := pr.completer.Complete(p, req)
	if err != nil {
		return false, err
	}
	if completed != nil && completed.Status == payment.StatusPaid {
		log.Info("payment completed", log15.Ctx{"paymentID": completed.ID})
		return true, pr.commit(b, maillog.StateChangedToPaid)
	}
	return true, nil
}
