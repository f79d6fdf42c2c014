package llm

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"strings"
	"time"
)

// maxBackoff caps jittered exponential backoff delay; pkg/llm's own single
// retry never gets close to it but the cap is kept for parity with other
// retrying callers.
const maxBackoff = 60 * time.Second

// IsRetriableDefault reports whether err looks like a transient failure
// (timeout, disconnect, 5xx) worth retrying once.
func IsRetriableDefault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"connection reset", "connection refused", "broken pipe", "503", "502", "504", "timeout"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// retryOnce runs fn, and if it fails with a retriable error, waits a
// jittered exponential backoff and runs it exactly one more time.
// notRetriable errors (e.g. *cost.BudgetExceededError) are never retried.
func retryOnce(ctx context.Context, fn func() (Response, error), notRetriable func(error) bool) (Response, error) {
	resp, err := fn()
	if err == nil {
		return resp, nil
	}
	if notRetriable != nil && notRetriable(err) {
		return resp, err
	}
	if !IsRetriableDefault(err) {
		return resp, err
	}

	delay := time.Duration(float64(2*time.Second) * (0.5 + rand.Float64()))
	if delay > maxBackoff {
		delay = maxBackoff
	}

	select {
	case <-ctx.Done():
		return resp, ctx.Err()
	case <-time.After(delay):
	}

	return fn()
}
