package resilience

import (
	"context"
	"errors"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

// Common classifications for adapter error classifiers.
var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures are returned at once and count against the breaker.
	Permanent = ErrorClassification{Retryable: false, RecordFailure: true}
	// Ignored failures are returned at once without touching the breaker.
	Ignored = ErrorClassification{}
)

// ClassifyCommon handles the cases every adapter treats alike: caller
// cancellation is ignored and an open breaker is transient. ok is false when
// the adapter must decide.
func ClassifyCommon(err error) (ErrorClassification, bool) {
	switch {
	case err == nil:
		return Ignored, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Ignored, true
	case IsCircuitOpen(err):
		return Transient, true
	default:
		return ErrorClassification{}, false
	}
}

// WrapTemporary marks retryable failures and open breakers as
// domain.ErrTemporary so callers can map them to 503 or a redelivery.
func WrapTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if IsCircuitOpen(err) || (classifier != nil && classifier(err).Retryable) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
