// Package httpclient implements the service-to-service ports over HTTP/JSON.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	defaultTimeout = 3 * time.Second
	maxBodyBytes   = 1 << 20
)

// StatusError is the transport-level cause attached to decoded remote errors.
type StatusError struct {
	Peer   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d", e.Peer, e.Status)
}

type Config struct {
	BaseURL string
	// Peer names the remote service in metrics and errors.
	Peer    string
	Timeout time.Duration
	// HTTPClient defaults to http.DefaultTransport; Timeout is applied per call.
	HTTPClient *http.Client
}

type base struct {
	baseURL string
	peer    string
	timeout time.Duration
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker
	inst    application.Instruments
	log     observability.Logger
}

func newBase(cfg Config, tel observability.Observability) *base {
	tel = observability.OrNop(tel)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := tel.Logger().With(observability.F("component", "httpclient"), observability.F("peer", cfg.Peer))

	b := &base{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		peer:    cfg.Peer,
		timeout: cfg.Timeout,
		hc:      hc,
		inst:    application.NewInstruments(tel, cfg.Peer),
		log:     logger,
	}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Peer,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_changed",
				observability.F("from", from.String()),
				observability.F("to", to.String()),
			)
		},
	})
	return b
}

// isSuccessful keeps business rejections from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound, apperr.KindInsufficientStock, apperr.KindInvalidTransition:
		return true
	}
	return false
}

// do sends one request and decodes the response into out. endpoint is the
// low-cardinality label used for metrics.
func (b *base) do(ctx context.Context, method, path, endpoint string, in, out any) error {
	start := time.Now()
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.roundTrip(ctx, method, path, in, out)
	})

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	b.inst.ObserveExternal(b.peer, endpoint, outcome, start)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperr.Upstream(b.peer+" circuit open", err)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Upstream(b.peer, err)
}

func (b *base) roundTrip(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperr.Internal("encode request", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return apperr.Internal("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := b.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", b.peer, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return b.decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", b.peer, err)
	}
	return nil
}

func (b *base) decodeError(status int, raw []byte) error {
	cause := &StatusError{Peer: b.peer, Status: status}
	var body api.Error
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		if status >= http.StatusInternalServerError {
			return apperr.Upstream(b.peer, cause)
		}
		return apperr.Wrap(kindForStatus(status), strings.TrimSpace(string(raw)), cause)
	}
	return body.AppErr(cause)
}

func kindForStatus(status int) apperr.Kind {
	switch status {
	case http.StatusNotFound:
		return apperr.KindNotFound
	case http.StatusConflict:
		return apperr.KindInvalidTransition
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.KindValidation
	default:
		return apperr.KindUpstreamUnavailable
	}
}
