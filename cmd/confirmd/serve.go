package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/confirmd/confirmd/migrations"
	"github.com/confirmd/confirmd/pkg/config"
	"github.com/confirmd/confirmd/pkg/env"
	"github.com/confirmd/confirmd/pkg/server"
	"github.com/confirmd/confirmd/pkg/service"
	v1 "github.com/confirmd/confirmd/pkg/service/api/v1"
	"github.com/confirmd/confirmd/pkg/service/event"
	"github.com/confirmd/confirmd/pkg/service/mailconfirmation"
	paymentService "github.com/confirmd/confirmd/pkg/service/payment"
	"github.com/gorilla/mux"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
	"gopkg.in/inconshreveable/log15.v2"
)

var serveCommand = cli.Command{
	Name:   "serve",
	Usage:  "Run the reconciliation daemon.",
	Action: serveAction,
}

func serveAction(c *cli.Context) error {
	log := env.Log.New(log15.Ctx{"AppName": AppName})

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		s := <-sig
		log.Info("received signal, shutting down...", log15.Ctx{"signal": s.String()})
		cancel()
	}()

	ctx, err := service.NewContext(baseCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("error creating service context: %v", err)
	}

	paymentDB, err := openPaymentDB(cfg, log)
	if err != nil {
		return err
	}
	defer paymentDB.Close()
	var paymentDBRO *sql.DB
	if cfg.Database.PaymentReadOnlyDSN != "" {
		paymentDBRO, err = sql.Open("mysql", cfg.Database.PaymentReadOnlyDSN)
		if err != nil {
			return fmt.Errorf("error opening read-only payment DB: %v", err)
		}
		paymentDBRO.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		defer paymentDBRO.Close()
	}
	ctx.SetPaymentDB(paymentDB, paymentDBRO)

	if cfg.Redis.Addr != "" {
		ctx.SetRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		log.Warn("no redis configured, payment totals will not be cached")
	}

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, event.ProducerConfig())
	if err != nil {
		return fmt.Errorf("error creating event producer: %v", err)
	}
	defer producer.Close()
	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.Group, mailconfirmation.ConsumerConfig())
	if err != nil {
		return fmt.Errorf("error creating mail consumer group: %v", err)
	}
	defer group.Close()

	emitter := event.NewEmitter(producer, cfg.Kafka.EventTopic, log)
	paymentSvc := paymentService.NewService(ctx, emitter)
	logSvc := mailconfirmation.NewLogService(ctx)
	completer := mailconfirmation.NewStatusCompleter(paymentSvc)
	processor := mailconfirmation.NewProcessor(paymentSvc, logSvc, completer, log)
	feed := mailconfirmation.NewFeed(ctx, processor, group, producer)

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- feed.Run()
	}()

	router := mux.NewRouter()
	v1.NewService(ctx, router, paymentSvc)

	srv := server.NewServer(ctx, log)
	err = srv.RegisterService(cfg.API.Service, router)
	if err != nil {
		return fmt.Errorf("error registering API service: %v", err)
	}

	serveErr := srv.Serve()
	cancel()
	if err := <-feedErr; err != nil && serveErr == nil {
		return err
	}
	return serveErr
}

func openPaymentDB(cfg config.Config, log log15.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.Database.PaymentDSN)
	if err != nil {
		return nil, fmt.Errorf("error opening payment DB: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to payment DB: %v", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err = goose.SetDialect("mysql"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting migration dialect: %v", err)
	}
	if err = goose.Up(db, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating payment DB: %v", err)
	}
	log.Info("payment DB migrated")
	return db, nil
}
