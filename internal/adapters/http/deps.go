package http

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/lunchpick/internal/adapters/provider"
	"github.com/samirrijal/lunchpick/internal/adapters/valkey"
	"github.com/samirrijal/lunchpick/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Recommender *usecases.RecommendationService
	Providers   *provider.Registry
	NATS        *nats.Conn
	Store       *valkey.Store

	RateLimit      int           // requests per minute per IP, 0 uses 120
	RequestTimeout time.Duration // 0 uses 15s
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit <= 0 {
		return 120
	}
	return d.RateLimit
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout <= 0 {
		return 15 * time.Second
	}
	return d.RequestTimeout
}
