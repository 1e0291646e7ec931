// Package service contains the shared service context
package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/confirmd/confirmd/pkg/config"
	"github.com/redis/go-redis/v9"
	"gopkg.in/inconshreveable/log15.v2"
)

// Context is a custom context which is used by the service pkg
type Context struct {
	context.Context

	cfg config.Config
	log log15.Logger

	paymentDBWrite    *sql.DB
	paymentDBReadOnly *sql.DB

	redis *redis.Client
}

// Config returns the config.Config associated with the context
func (ctx *Context) Config() *config.Config {
	return &ctx.cfg
}

// Log returns the log15.Logger associated with the context
func (ctx *Context) Log() log15.Logger {
	return ctx.log
}

type dbRequestReadOnly bool

// ReadOnly is a possible parameter for the ctx.PaymentDB() method. If this
// parameter is passed, the method will attempt to return the read-only
// database connection.
var ReadOnly = dbRequestReadOnly(true)

// PaymentDB returns the *sql.DB for the payment DB
// If the parameter(s) contain a service.ReadOnly, the read-only connection will be returned if present
func (ctx *Context) PaymentDB(ros ...dbRequestReadOnly) *sql.DB {
	var ro bool
	for _, r := range ros {
		if r {
			ro = true
		}
	}
	if !ro || ctx.paymentDBReadOnly == nil {
		return ctx.paymentDBWrite
	}
	return ctx.paymentDBReadOnly
}

// SetPaymentDB sets the payment DB connection(s)
// It will panic if the write connection is nil
func (ctx *Context) SetPaymentDB(w, ro *sql.DB) {
	if w == nil {
		panic("write DB connection cannot be nil")
	}
	ctx.paymentDBWrite, ctx.paymentDBReadOnly = w, ro
}

// Redis returns the redis client associated with the context. It can be nil
// when no cache is configured; callers fall back to uncached reads.
func (ctx *Context) Redis() *redis.Client {
	return ctx.redis
}

// SetRedis sets the redis client
func (ctx *Context) SetRedis(c *redis.Client) {
	ctx.redis = c
}

// NewContext creates a new service context for use in the service pkg
func NewContext(ctx context.Context, cfg config.Config, log log15.Logger) (*Context, error) {
	if log == nil {
		return nil, errors.New("log cannot be nil")
	}
	return &Context{
		Context: ctx,
		cfg:     cfg,
		log:     log,
	}, nil
}
