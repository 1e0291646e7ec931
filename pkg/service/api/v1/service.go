package v1

import (
	"github.com/confirmd/confirmd/pkg/service"
	paymentService "github.com/confirmd/confirmd/pkg/service/payment"
	"github.com/gorilla/mux"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	serviceVersion = "v1"
	// ServicePath is the (sub-)path under which the API service v1.x resides in
	ServicePath = "/" + serviceVersion
)

// Service represents the API service version 1.x
type Service struct {
	log log15.Logger
}

// NewService creates a new API service attached to the given router
func NewService(ctx *service.Context, router *mux.Router, paymentSvc *paymentService.Service) *Service {
	s := &Service{
		log: ctx.Log().New(log15.Ctx{"pkg": "github.com/confirmd/confirmd/pkg/service/api/v1"}),
	}

	s.log.Info("registering payment API...")
	api := NewPaymentAPI(ctx, paymentSvc)
	router.Handle(ServicePath+"/payments/list", api.AuthRequiredHandler(api.ListPayments())).Methods("POST")
	router.Handle(ServicePath+"/payments/stats", api.AuthRequiredHandler(api.PaymentStats())).Methods("GET")

	return s
}
