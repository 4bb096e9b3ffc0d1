// Package webhook delivers run results to caller-supplied callback URLs.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hairizuan-noorazman/browser-bridge/logger"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 10 * time.Second

// Delivery outcomes reported to the Observer.
const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Observer is notified of every finished delivery.
type Observer interface {
	ObserveDelivery(outcome string)
}

// Dispatcher posts JSON payloads in the background. Deliveries are never
// retried and their failures are only logged.
type Dispatcher struct {
	httpClient *http.Client
	logger     logger.Logger
	observer   Observer
	wg         sync.WaitGroup
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher(timeout time.Duration, log logger.Logger, observer Observer) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		observer:   observer,
	}
}

// Dispatch serializes payload and sends it to url without blocking the caller.
// Cancelling ctx does not cancel the delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, url string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error(ctx, "failed to marshal webhook payload", map[string]interface{}{
			"webhook_url": url,
			"error":       err.Error(),
		})
		d.observe(OutcomeFailed)
		return
	}

	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(ctx, url, body)
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, url string, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "webhook delivery panicked", map[string]interface{}{
				"webhook_url": url,
				"panic":       fmt.Sprint(r),
			})
			d.observe(OutcomeFailed)
		}
	}()

	err := d.post(ctx, url, body)
	switch {
	case err == nil:
		d.logger.Info(ctx, "webhook sent", map[string]interface{}{
			"webhook_url": url,
		})
		d.observe(OutcomeDelivered)

	case isRejected(err):
		d.logger.Error(ctx, "webhook rejected", map[string]interface{}{
			"webhook_url": url,
			"error":       err.Error(),
		})
		d.observe(OutcomeRejected)

	default:
		d.logger.Error(ctx, "failed to send webhook", map[string]interface{}{
			"webhook_url": url,
			"error":       err.Error(),
		})
		d.observe(OutcomeFailed)
	}
}

// statusError is returned for non-2xx responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook: unexpected status %d: %s", e.code, e.body)
}

func isRejected(err error) bool {
	var se *statusError
	return errors.As(err, &se)
}

func (d *Dispatcher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(snippet)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (d *Dispatcher) observe(outcome string) {
	if d.observer != nil {
		d.observer.ObserveDelivery(outcome)
	}
}

// Wait blocks until every pending delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
