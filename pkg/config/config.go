package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	// Backend Postgres (read-only tables + reservation function)
	PGBackendDSN string `envconfig:"PG_BACKEND_DSN" required:"true"`

	// JWT
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// RabbitMQ
	RabbitURL       string `envconfig:"RABBIT_URL" required:"true"`
	ChangesExchange string `envconfig:"CHANGES_EXCHANGE" default:"backend.changes"`
	ChangesQueue    string `envconfig:"CHANGES_QUEUE" default:"slotd.changes.q"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
	Prefetch        int    `envconfig:"MQ_PREFETCH" default:"8"`

	// Reconciliation
	RefreshIntervalSec int `envconfig:"REFRESH_INTERVAL_SEC" default:"15"`

	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
