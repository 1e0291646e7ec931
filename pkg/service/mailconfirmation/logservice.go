package mailconfirmation

import (
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/maillog"
	"github.com/confirmd/confirmd/pkg/service"
	"gopkg.in/inconshreveable/log15.v2"
)

// LogService is the SQL-backed reconciliation log store
type LogService struct {
	ctx *service.Context
	log log15.Logger
}

// NewLogService creates a log service on the payment DB
func NewLogService(ctx *service.Context) *LogService {
	return &LogService{
		ctx: ctx,
		log: ctx.Log().New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/mailconfirmation",
		}),
	}
}

// Commit inserts one reconciliation log entry
func (s *LogService) Commit(e maillog.Entry) error {
	err := maillog.InsertEntryDB(s.ctx.PaymentDB(), &e)
	if err != nil {
		s.log.Error("error committing log entry", log15.Ctx{
			"state": e.State,
			"err":   err,
		})
		return err
	}
	s.log.Debug("log entry committed", log15.Ctx{
		"state": e.State,
		"vs":    e.VariableSymbol.String,
	})
	return nil
}

// CountConfirmedSince counts confirmations recorded for the variable symbol
// at or after the given time
func (s *LogService) CountConfirmedSince(variableSymbol string, since time.Time) (int64, error) {
	count, err := maillog.CountByStateSinceDB(
		s.ctx.PaymentDB(service.ReadOnly),
		variableSymbol,
		maillog.StateChangedToPaid,
		since,
	)
	if err != nil {
		s.log.Error("error counting confirmations", log15.Ctx{
			"vs":  variableSymbol,
			"err": err,
		})
	}
	return count, err
}
