package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-desk/pkg/auth"
	"github.com/jwalitptl/clinic-desk/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/clinic-desk/pkg/errors"
	"github.com/jwalitptl/clinic-desk/pkg/metrics"
)

type Config struct {
	BaseURL          string
	Timeout          time.Duration
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	BreakerFailures  int
	BreakerTimeout   time.Duration
}

// Client talks to the clinic backend. Reads are retried on transport
// errors; writes are sent once so a lost response never creates a second
// visit.
type Client struct {
	reads   *resty.Client
	writes  *resty.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// apiError is the error body the backend sends.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func NewClient(cfg Config, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	newResty := func() *resty.Client {
		return resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}

	reads := newResty().
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(cfg.RetryMaxWaitTime)

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "clinic-backend",
		MaxFailures: cfg.BreakerFailures,
		Timeout:     cfg.BreakerTimeout,
		IsFailure:   isBackendFailure,
	})

	if m == nil {
		m = metrics.NewNop()
	}

	return &Client{
		reads:   reads,
		writes:  newResty(),
		breaker: breaker,
		metrics: m,
		logger:  logger.With().Str("component", "clinic-backend").Logger(),
	}
}

// isBackendFailure counts transport errors and 5xx answers against the
// breaker. 4xx answers mean the backend is up.
func isBackendFailure(err error) bool {
	var up *apperrors.UpstreamError
	if errors.As(err, &up) {
		return up.Status == 0 || up.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) request(ctx context.Context, write bool) *resty.Request {
	rc := c.reads
	if write {
		rc = c.writes
	}
	req := rc.R().SetContext(ctx).SetError(&apiError{})
	if caller, ok := auth.FromContext(ctx); ok && caller.Token != "" {
		req.SetAuthToken(caller.Token)
	}
	return req
}

// call runs one backend request through the breaker and records it.
// fallback is the message users see when the backend gives none.
func (c *Client) call(op, fallback string, send func() (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	var resp *resty.Response

	err := c.breaker.Execute(func() error {
		var err error
		resp, err = send()
		if err != nil {
			// resp survives a body that failed to decode; keep its status.
			status := 0
			if resp != nil {
				status = resp.StatusCode()
			}
			return apperrors.NewUpstream("", fallback, status, fmt.Errorf("%s: %w", op, err))
		}
		if resp.IsError() {
			body, _ := resp.Error().(*apiError)
			return apperrors.NewUpstream(body.text(), fallback, resp.StatusCode(),
				fmt.Errorf("%s: backend returned %d", op, resp.StatusCode()))
		}
		return nil
	})

	status := "error"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		status = "breaker_open"
		err = apperrors.NewUpstream("", fallback, 0, fmt.Errorf("%s: %w", op, err))
	case resp != nil:
		status = strconv.Itoa(resp.StatusCode())
	}
	c.metrics.UpstreamRequests.WithLabelValues(op, status).Inc()
	c.metrics.UpstreamLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn().Err(err).Str("operation", op).Str("status", status).Msg("clinic backend call failed")
		return resp, err
	}
	return resp, nil
}
