// Package platform talks to the ThingsBoard-style device platform the well
// controller reports to: login, device lookup, telemetry and two-way RPC.
package platform

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wellpump/internal/logger"
	"wellpump/internal/models"

	"github.com/sony/gobreaker"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = time.Minute
)

// SessionCache persists the bearer token between runs.
type SessionCache interface {
	Load(ctx context.Context) (models.Session, bool)
	Save(ctx context.Context, token string) error
}

// RequestObserver is told about every platform request; err is nil on success.
type RequestObserver interface {
	ObservePlatformRequest(op string, err error)
}

type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	Interval    time.Duration
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
}

// Account is an authenticated platform identity.
type Account struct {
	Token      string
	CustomerID string
}

type Client struct {
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	sessions SessionCache
	observer RequestObserver
	log      *logger.Logger
	now      func() time.Time
}

// NewClient builds a client. observer and log may be nil.
func NewClient(cfg Config, sessions SessionCache, observer RequestObserver, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:     &http.Client{Timeout: timeout},
		breaker:  newBreaker(cfg.Breaker),
		sessions: sessions,
		observer: observer,
		log:      log,
		now:      time.Now,
	}
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker {
	fails := cfg.MaxFailures
	if fails == 0 {
		fails = defaultMaxFailures
	}
	openFor := cfg.OpenTimeout
	if openFor <= 0 {
		openFor = defaultOpenTimeout
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "device-platform",
		Interval: cfg.Interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		IsSuccessful: answeredByPlatform,
	})
}
