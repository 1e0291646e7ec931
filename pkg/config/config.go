// Package config handles the confirmd configuration file
package config

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// Duration is a time.Duration encoded as a parseable string in the config file
type Duration string

// Duration returns the parsed time.Duration
func (d Duration) Duration() (time.Duration, error) {
	return time.ParseDuration(string(d))
}

// ServiceConfig represents a configuration for an HTTP service
type ServiceConfig struct {
	Address        string
	ReadTimeout    Duration
	WriteTimeout   Duration
	MaxHeaderBytes int
}

// Config represents a full configuration for the confirmd daemon
type Config struct {
	// API server config
	API struct {
		Service  ServiceConfig
		AuthKeys []string
	}
	Database struct {
		// PaymentDSN is the write connection to the payment DB
		PaymentDSN string
		// PaymentReadOnlyDSN is optional; point lookups fall back to the
		// write connection when empty
		PaymentReadOnlyDSN string
		MaxOpenConns       int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Kafka struct {
		Brokers []string
		// Group is the consumer group id tracking the mail topic offsets
		Group string
		// EventTopic carries the outbound payment events
		EventTopic string
		// MailTopic carries inbound parsed notifications
		MailTopic string
		// MailUnhandledTopic receives notifications the processor could
		// not associate with an outcome, for redelivery or manual review
		MailUnhandledTopic string
	}
	Reconciliation struct {
		// SkipPaidCheck skips the already-paid short-circuit on the card
		// path. Only set when the feed has independent assurance of
		// freshness.
		SkipPaidCheck bool
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	cfg := Config{}
	cfg.API.Service.Address = ":8080"
	cfg.API.Service.ReadTimeout = "10s"
	cfg.API.Service.WriteTimeout = "10s"
	cfg.Database.PaymentDSN = "confirmd@tcp(localhost:3306)/confirmd?parseTime=true"
	cfg.Database.MaxOpenConns = 10
	cfg.Redis.Addr = "localhost:6379"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Group = "confirmd"
	cfg.Kafka.EventTopic = "payment-events"
	cfg.Kafka.MailTopic = "parsed-mails"
	cfg.Kafka.MailUnhandledTopic = "parsed-mails-unhandled"

	return cfg
}

// ReadConfig reads the JSON from the given reader into a new Config
func ReadConfig(r io.Reader) (Config, error) {
	dec := json.NewDecoder(r)
	cfg := Config{}
	err := dec.Decode(&cfg)
	return cfg, err
}

// ReadFileConfig reads the config file with the given name
func ReadFileConfig(name string) (Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return ReadConfig(f)
}

// WriteConfig will write the given config to the given Writer as JSON (pretty printed)
func WriteConfig(w io.Writer, cfg Config) error {
	jsonBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(jsonBytes)
	return err
}
