// Package payment provides the payment service
package payment

import (
	"database/sql"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/confirmd/confirmd/pkg/service"
	"github.com/confirmd/confirmd/pkg/service/event"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/inconshreveable/log15.v2"
)

type errorID int

func (e errorID) Error() string {
	switch e {
	case ErrDB:
		return "database error"
	case ErrDBLockTimeout:
		return "lock wait timeout"
	case ErrInternal:
		return "internal error"
	default:
		return "unknown error"
	}
}

const (
	// general database error
	ErrDB errorID = iota
	// lock wait timeout
	ErrDBLockTimeout
	// internal error
	ErrInternal
)

// EventEmitter describes the bus the service announces payment changes on
type EventEmitter interface {
	EmitNewPayment(paymentID int64)
	EmitPaymentStatusChange(ev event.PaymentStatusChange)
}

// Service is the payment service
type Service struct {
	ctx *service.Context
	log log15.Logger

	bus EventEmitter
}

// NewService creates a new payment service
func NewService(ctx *service.Context, bus EventEmitter) *Service {
	return &Service{
		ctx: ctx,
		log: ctx.Log().New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/payment",
		}),
		bus: bus,
	}
}

func mapDBError(log log15.Logger, msg string, err error) error {
	if mysqlErr, ok := err.(*mysql.MySQLError); ok {
		if mysqlErr.Number == 1213 {
			return ErrDBLockTimeout
		}
	}
	log.Error(msg, log15.Ctx{"err": err})
	return ErrDB
}

// CreatePayment creates a new payment with its line items and announces it
// on the bus
func (s *Service) CreatePayment(p *payment.Payment, items []payment.Item) error {
	log := s.log.New(log15.Ctx{"method": "CreatePayment"})
	tx, err := s.ctx.PaymentDB().Begin()
	if err != nil {
		return mapDBError(log, "error on begin tx", err)
	}
	err = payment.InsertPaymentTx(tx, p)
	if err != nil {
		tx.Rollback()
		return mapDBError(log, "error on insert payment", err)
	}
	err = payment.InsertItemsTx(tx, p.ID, items)
	if err != nil {
		tx.Rollback()
		return mapDBError(log, "error on insert payment items", err)
	}
	err = tx.Commit()
	if err != nil {
		return mapDBError(log, "error on commit", err)
	}
	s.bus.EmitNewPayment(p.ID)
	return nil
}

// CopyPayment creates a fresh form-status copy of the given payment,
// announcing the copy as a new payment
func (s *Service) CopyPayment(p *payment.Payment) (*payment.Payment, error) {
	log := s.log.New(log15.Ctx{
		"method":    "CopyPayment",
		"paymentID": p.ID,
	})
	tx, err := s.ctx.PaymentDB().Begin()
	if err != nil {
		return nil, mapDBError(log, "error on begin tx", err)
	}
	cp, err := payment.CopyPaymentTx(tx, p)
	if err != nil {
		tx.Rollback()
		return nil, mapDBError(log, "error on copy payment", err)
	}
	err = tx.Commit()
	if err != nil {
		return nil, mapDBError(log, "error on commit", err)
	}
	log.Info("copied stale payment", log15.Ctx{"newPaymentID": cp.ID})
	s.bus.EmitNewPayment(cp.ID)
	return cp, nil
}

// UpdateStatus moves the payment into the next status and announces the
// change on the bus.
//
// The transition runs inside a transaction with a row lock, the settled to
// fail guard applies. When the guard refuses, the payment is left untouched,
// a warning is logged and payment.ErrTransitionForbidden is returned.
//
// An optional explicit salesFunnelID is carried into the status-change
// event when the payment does not reference a sales funnel itself.
func (s *Service) UpdateStatus(p *payment.Payment, next payment.Status, sendEmail bool, note string, salesFunnelID ...int64) (*payment.Payment, error) {
	log := s.log.New(log15.Ctx{
		"method":     "UpdateStatus",
		"paymentID":  p.ID,
		"nextStatus": next,
	})
	var noteArg sql.NullString
	if note != "" {
		noteArg = sql.NullString{String: note, Valid: true}
	}
	tx, err := s.ctx.PaymentDB().Begin()
	if err != nil {
		return nil, mapDBError(log, "error on begin tx", err)
	}
	err = payment.UpdateStatusTx(tx, p.ID, next, noteArg, sql.NullString{})
	if err != nil {
		tx.Rollback()
		if err == payment.ErrTransitionForbidden {
			log.Warn("attempt to fail a settled payment", log15.Ctx{
				"status": p.Status,
			})
			return nil, err
		}
		if err == payment.ErrPaymentNotFound {
			return nil, err
		}
		return nil, mapDBError(log, "error on update status", err)
	}
	err = tx.Commit()
	if err != nil {
		return nil, mapDBError(log, "error on commit", err)
	}

	ev := event.PaymentStatusChange{
		PaymentID: p.ID,
		SendEmail: sendEmail,
	}
	if p.SalesFunnelID.Valid {
		ev.SalesFunnelID = &p.SalesFunnelID.Int64
	} else if len(salesFunnelID) > 0 {
		ev.SalesFunnelID = &salesFunnelID[0]
	}
	s.bus.EmitPaymentStatusChange(ev)

	updated, err := payment.PaymentByIDDB(s.ctx.PaymentDB(), p.ID)
	if err != nil {
		return nil, mapDBError(log, "error reloading payment", err)
	}
	return updated, nil
}

// LastByVariableSymbol returns the most recently created payment matching
// any variant of the given variable symbol
func (s *Service) LastByVariableSymbol(variableSymbol string) (*payment.Payment, error) {
	p, err := payment.LastByVariableSymbolDB(s.ctx.PaymentDB(service.ReadOnly), variableSymbol)
	if err != nil {
		if err == payment.ErrPaymentNotFound {
			return nil, err
		}
		return nil, mapDBError(s.log.New(log15.Ctx{"method": "LastByVariableSymbol"}), "error on lookup", err)
	}
	return p, nil
}

// PaymentByID returns the payment with the given id
func (s *Service) PaymentByID(id int64) (*payment.Payment, error) {
	p, err := payment.PaymentByIDDB(s.ctx.PaymentDB(service.ReadOnly), id)
	if err != nil {
		if err == payment.ErrPaymentNotFound {
			return nil, err
		}
		return nil, mapDBError(s.log.New(log15.Ctx{"method": "PaymentByID"}), "error on lookup", err)
	}
	return p, nil
}
