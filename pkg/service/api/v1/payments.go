package v1

import (
	"net/http"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/confirmd/confirmd/pkg/service"
	paymentService "github.com/confirmd/confirmd/pkg/service/payment"
	"github.com/shopspring/decimal"
	"gopkg.in/inconshreveable/log15.v2"
)

// PaymentAPI provides the payment resources of the API service
type PaymentAPI struct {
	ctx *service.Context
	log log15.Logger

	paymentService *paymentService.Service
}

// NewPaymentAPI creates a new payment API
func NewPaymentAPI(ctx *service.Context, paymentSvc *paymentService.Service) *PaymentAPI {
	return &PaymentAPI{
		ctx: ctx,
		log: ctx.Log().New(log15.Ctx{
			"pkg": "github.com/confirmd/confirmd/pkg/service/api/v1",
		}),
		paymentService: paymentSvc,
	}
}

// PaymentResource is the API representation of a payment
type PaymentResource struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	GatewayID          int64           `json:"payment_gateway_id"`
	SubscriptionID     *int64          `json:"subscription_id"`
	SubscriptionTypeID *int64          `json:"subscription_type_id"`
	SalesFunnelID      *int64          `json:"sales_funnel_id"`
	Status             payment.Status  `json:"status"`
	Amount             decimal.Decimal `json:"amount"`
	VariableSymbol     string          `json:"variable_symbol"`
	Note               *string         `json:"note"`
	ErrorMessage       *string         `json:"error_message"`
	CreatedAt          time.Time       `json:"created_at"`
	PaidAt             *time.Time      `json:"paid_at"`
	Items              []ItemResource  `json:"items"`
}

// ItemResource is the API representation of a payment line item
type ItemResource struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	VAT    int             `json:"vat"`
	Count  int             `json:"count"`
	Type   string          `json:"type"`
}

func newPaymentResource(p *payment.Payment) PaymentResource {
	res := PaymentResource{
		ID:             p.ID,
		UserID:         p.UserID,
		GatewayID:      p.GatewayID,
		Status:         p.Status,
		Amount:         p.Amount,
		VariableSymbol: p.VariableSymbol,
		CreatedAt:      p.CreatedAt,
	}
	if p.SubscriptionID.Valid {
		res.SubscriptionID = &p.SubscriptionID.Int64
	}
	if p.SubscriptionTypeID.Valid {
		res.SubscriptionTypeID = &p.SubscriptionTypeID.Int64
	}
	if p.SalesFunnelID.Valid {
		res.SalesFunnelID = &p.SalesFunnelID.Int64
	}
	if p.Note.Valid {
		res.Note = &p.Note.String
	}
	if p.ErrorMessage.Valid {
		res.ErrorMessage = &p.ErrorMessage.String
	}
	if p.PaidAt.Valid {
		res.PaidAt = &p.PaidAt.Time
	}
	return res
}

// ListPayments returns the payments belonging to the posted sales funnel
func (a *PaymentAPI) ListPayments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		log := a.log.New(log15.Ctx{
			"method": "ListPayments",
		})
		urlKey := r.PostFormValue("sales_funnel_url_key")
		if urlKey == "" {
			ret := ErrReadParam
			ret.Info = "no valid sales funnel url key"
			ret.Error = "url_key_missing"
			ret.Write(w)
			return
		}
		log = log.New(log15.Ctx{"urlKey": urlKey})

		payments, err := payment.BySalesFunnelURLKeyDB(a.ctx.PaymentDB(service.ReadOnly), urlKey)
		if err != nil {
			log.Error("error retrieving payments", log15.Ctx{"err": err})
			ErrDatabase.Write(w)
			return
		}

		resources := make([]PaymentResource, 0, len(payments))
		for _, p := range payments {
			res := newPaymentResource(p)
			items, err := payment.ItemsByPaymentDB(a.ctx.PaymentDB(service.ReadOnly), p.ID)
			if err != nil {
				log.Error("error retrieving payment items", log15.Ctx{
					"paymentID": p.ID,
					"err":       err,
				})
				ErrDatabase.Write(w)
				return
			}
			for _, it := range items {
				res.Items = append(res.Items, ItemResource{
					Name:   it.Name,
					Amount: it.Amount,
					VAT:    it.VAT,
					Count:  it.Count,
					Type:   it.Type,
				})
			}
			resources = append(resources, res)
		}

		resp := ServiceResponse{}
		resp.Version = ServiceVersion
		resp.Status = StatusSuccess
		resp.HttpStatus = http.StatusOK
		resp.Info = "returning payments"
		resp.Response = resources
		resp.Write(w)
	})
}

// PaymentStatsResponse carries the payment totals
type PaymentStatsResponse struct {
	AmountSum decimal.Decimal `json:"amount_sum"`
	Count     int64           `json:"count"`
}

// PaymentStats returns the cached payment totals
func (a *PaymentAPI) PaymentStats() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		log := a.log.New(log15.Ctx{
			"method": "PaymentStats",
		})
		forceUpdate := r.URL.Query().Get("refresh") != ""

		sum, err := a.paymentService.TotalAmountSum(forceUpdate)
		if err != nil {
			log.Error("error retrieving amount sum", log15.Ctx{"err": err})
			ErrDatabase.Write(w)
			return
		}
		count, err := a.paymentService.TotalCount(forceUpdate)
		if err != nil {
			log.Error("error retrieving payment count", log15.Ctx{"err": err})
			ErrDatabase.Write(w)
			return
		}

		resp := ServiceResponse{}
		resp.Version = ServiceVersion
		resp.Status = StatusSuccess
		resp.HttpStatus = http.StatusOK
		resp.Info = "returning payment stats"
		resp.Response = PaymentStatsResponse{
			AmountSum: sum,
			Count:     count,
		}
		resp.Write(w)
	})
}
