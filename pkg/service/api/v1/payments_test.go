package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/confirmd/confirmd/pkg/service"
	"github.com/confirmd/confirmd/pkg/service/event"
	paymentService "github.com/confirmd/confirmd/pkg/service/payment"
	"github.com/confirmd/confirmd/pkg/testutil"
	"github.com/gorilla/mux"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/inconshreveable/log15.v2"
)

type noopEmitter struct{}

func (noopEmitter) EmitNewPayment(paymentID int64)                       {}
func (noopEmitter) EmitPaymentStatusChange(ev event.PaymentStatusChange) {}

var paymentColumns = []string{
	"id", "user_id", "payment_gateway_id", "is_recurrent",
	"subscription_id", "subscription_type_id", "sales_funnel_id",
	"status", "amount", "variable_symbol",
	"ip", "user_agent", "referer", "note", "error_message",
	"created_at", "modified_at", "paid_at",
}

const testAuthKey = "api-test-key"

func listRequest(urlKey, authKey string) *http.Request {
	form := url.Values{}
	if urlKey != "" {
		form.Set("sales_funnel_url_key", urlKey)
	}
	r := httptest.NewRequest("POST", ServicePath+"/payments/list", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authKey != "" {
		r.Header.Set("Authorization", "Bearer "+authKey)
	}
	return r
}

func TestPaymentAPI(t *testing.T) {
	Convey("Given an API service", t, testutil.WithContext(func(ctx *service.Context, logs <-chan *log15.Record) {
		db, mock, err := sqlmock.New()
		So(err, ShouldBeNil)
		ctx.SetPaymentDB(db, nil)
		ctx.Config().API.AuthKeys = []string{testAuthKey}
		Reset(func() {
			So(mock.ExpectationsWereMet(), ShouldBeNil)
			db.Close()
		})

		router := mux.NewRouter()
		NewService(ctx, router, paymentService.NewService(ctx, noopEmitter{}))

		Convey("When requesting the payment list without authorization", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, listRequest("funnel-a", ""))

			Convey("The request should be refused", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				resp := ServiceResponse{}
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Status, ShouldEqual, StatusUnauthorized)
			})
		})

		Convey("When requesting the payment list with a wrong key", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, listRequest("funnel-a", "not-the-key"))

			Convey("The request should be refused", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When requesting the payment list without a url key", func() {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, listRequest("", testAuthKey))

			Convey("The missing parameter should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				resp := ServiceResponse{}
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Status, ShouldEqual, StatusImplementationError)
				So(resp.Error, ShouldEqual, "url_key_missing")
			})
		})

		Convey("When requesting the payment list for a sales funnel", func() {
			now := time.Now()
			mock.ExpectQuery("SELECT(.+)FROM payment(.+)INNER JOIN sales_funnel(.+)url_key").
				WithArgs("funnel-a").
				WillReturnRows(sqlmock.NewRows(paymentColumns).
					AddRow(
						int64(1), int64(7), int64(2), false,
						nil, nil, int64(3),
						"paid", "100.00", "8100000013",
						"127.0.0.1", "test-agent", nil, nil, nil,
						now, now, now,
					))
			mock.ExpectQuery("SELECT(.+)FROM payment_item(.+)payment_id").
				WithArgs(int64(1)).
				WillReturnRows(sqlmock.NewRows([]string{"id", "payment_id", "name", "amount", "vat", "count", "type"}).
					AddRow(int64(5), int64(1), "monthly subscription", "100.00", 20, 1, "subscription"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, listRequest("funnel-a", testAuthKey))

			Convey("The payments should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := struct {
					Status   string
					Response []PaymentResource
				}{}
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Status, ShouldEqual, StatusSuccess)
				So(resp.Response, ShouldHaveLength, 1)
				So(resp.Response[0].ID, ShouldEqual, 1)
				So(string(resp.Response[0].Status), ShouldEqual, "paid")
				So(resp.Response[0].SalesFunnelID, ShouldNotBeNil)
				So(*resp.Response[0].SalesFunnelID, ShouldEqual, 3)
				So(resp.Response[0].PaidAt, ShouldNotBeNil)
				So(resp.Response[0].Items, ShouldHaveLength, 1)
				So(resp.Response[0].Items[0].Name, ShouldEqual, "monthly subscription")
			})
		})

		Convey("When requesting the payment stats", func() {
			mock.ExpectQuery("SELECT COALESCE(.+)FROM payment").
				WithArgs("paid").
				WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("1250.50"))
			mock.ExpectQuery("SELECT COUNT(.+) FROM payment").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(321))

			r := httptest.NewRequest("GET", ServicePath+"/payments/stats", nil)
			r.Header.Set("Authorization", "Bearer "+testAuthKey)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			Convey("The totals should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := struct {
					Status   string
					Response PaymentStatsResponse
				}{}
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Status, ShouldEqual, StatusSuccess)
				So(resp.Response.Count, ShouldEqual, 321)
				So(resp.Response.AmountSum.String(), ShouldEqual, "1250.5")
			})
		})
	}))
}
