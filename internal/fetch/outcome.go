package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Outcome classifies the terminal state of a fetch attempt.
type Outcome int

const (
	// OutcomeOK means the page body was retrieved successfully.
	OutcomeOK Outcome = iota
	// OutcomeInvalidInput means the URL was rejected before any network I/O.
	OutcomeInvalidInput
	// OutcomePolicyDenied means robots.txt disallows the URL for our agent.
	OutcomePolicyDenied
	// OutcomeTimeout means the attempt exceeded its deadline.
	OutcomeTimeout
	// OutcomeTransport means a connection-level failure (DNS, TCP, TLS).
	OutcomeTransport
	// OutcomeServer means the server answered with a non-success status.
	OutcomeServer
	// OutcomeRender means the headless browser failed to produce a document.
	OutcomeRender
	// OutcomeUnexpected covers failures outside the other categories.
	OutcomeUnexpected
)

// String returns the stable label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomePolicyDenied:
		return "policy_denied"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransport:
		return "transport"
	case OutcomeServer:
		return "server"
	case OutcomeRender:
		return "render"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Retryable reports whether another attempt against the same URL could
// plausibly succeed. Input and policy rejections are final.
func (o Outcome) Retryable() bool {
	switch o {
	case OutcomeTimeout, OutcomeTransport, OutcomeServer, OutcomeRender, OutcomeUnexpected:
		return true
	default:
		return false
	}
}

// outcomeError carries an Outcome alongside the underlying cause so the
// scheduler can classify a failure after retries are exhausted.
type outcomeError struct {
	outcome Outcome
	err     error
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("%s: %v", e.outcome, e.err)
}

func (e *outcomeError) Unwrap() error {
	return e.err
}

// fail wraps err with an explicit outcome classification.
func fail(o Outcome, err error) error {
	return &outcomeError{outcome: o, err: err}
}

// failf is fail with fmt.Errorf formatting.
func failf(o Outcome, format string, args ...any) error {
	return &outcomeError{outcome: o, err: fmt.Errorf(format, args...)}
}

// outcomeOf maps an error to its Outcome. Errors already wrapped by fail()
// keep their classification; everything else is inspected for deadline and
// connection-level signatures and otherwise treated as unexpected.
func outcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var oe *outcomeError
	if errors.As(err, &oe) {
		return oe.outcome
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return OutcomeTimeout
		}
		return OutcomeTransport
	}
	return OutcomeUnexpected
}
