package payment

import (
	"strconv"
	"time"

	"github.com/confirmd/confirmd/pkg/confirmd/payment"
	"github.com/shopspring/decimal"
	"gopkg.in/inconshreveable/log15.v2"
)

// cache keys for the payment totals
const (
	cacheKeyTotalAmountSum = "payments_paid_sum"
	cacheKeyTotalCount     = "payments_count"
)

// cacheRefreshInterval bounds how stale the cached totals may get
const cacheRefreshInterval = 5 * time.Minute

// TotalAmountSum returns the sum of all settled payment amounts.
//
// The value is served from the cache when present; computing the sum scans
// the whole payment table. forceUpdate recomputes and rewrites the cache.
// Without a configured cache every call computes directly.
func (s *Service) TotalAmountSum(forceUpdate bool) (decimal.Decimal, error) {
	log := s.log.New(log15.Ctx{"method": "TotalAmountSum"})
	if cached, ok := s.cachedValue(cacheKeyTotalAmountSum, forceUpdate); ok {
		sum, err := decimal.NewFromString(cached)
		if err == nil {
			return sum, nil
		}
		log.Warn("discarding malformed cached sum", log15.Ctx{"value": cached})
	}
	sum, err := payment.TotalAmountSumDB(s.ctx.PaymentDB())
	if err != nil {
		return decimal.Zero, mapDBError(log, "error on total amount sum", err)
	}
	s.storeCachedValue(cacheKeyTotalAmountSum, sum.String())
	return sum, nil
}

// TotalCount returns the number of payment records, cached like TotalAmountSum
func (s *Service) TotalCount(forceUpdate bool) (int64, error) {
	log := s.log.New(log15.Ctx{"method": "TotalCount"})
	if cached, ok := s.cachedValue(cacheKeyTotalCount, forceUpdate); ok {
		count, err := strconv.ParseInt(cached, 10, 64)
		if err == nil {
			return count, nil
		}
		log.Warn("discarding malformed cached count", log15.Ctx{"value": cached})
	}
	count, err := payment.TotalCountDB(s.ctx.PaymentDB())
	if err != nil {
		return 0, mapDBError(log, "error on total count", err)
	}
	s.storeCachedValue(cacheKeyTotalCount, strconv.FormatInt(count, 10))
	return count, nil
}

func (s *Service) cachedValue(key string, forceUpdate bool) (string, bool) {
	rd := s.ctx.Redis()
	if rd == nil || forceUpdate {
		return "", false
	}
	val, err := rd.Get(s.ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *Service) storeCachedValue(key, value string) {
	rd := s.ctx.Redis()
	if rd == nil {
		return
	}
	err := rd.Set(s.ctx, key, value, cacheRefreshInterval).Err()
	if err != nil {
		s.log.Warn("error storing cached value", log15.Ctx{"key": key, "err": err})
	}
}
