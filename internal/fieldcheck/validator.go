package fieldcheck

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/utils"
)

// DefaultFallbackDelay keeps the "checking" state visible for the local path.
const DefaultFallbackDelay = 500 * time.Millisecond

var errVerifierUnavailable = errors.New("external verifier unavailable")

// ExternalVerifier is an optional richer check, e.g. a third-party widget.
// Verify must eventually call cb with its verdict, or return an error.
type ExternalVerifier interface {
	IsAvailable() bool
	Verify(ctx context.Context, kind Kind, value string, cb func(FieldResult)) error
}

// Validator classifies email and phone input, preferring the external
// verifier and falling back to the local checks.
type Validator struct {
	verifier      ExternalVerifier
	fallbackDelay time.Duration
	after         func(time.Duration) <-chan time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithVerifier sets the external verifier. nil means none.
func WithVerifier(v ExternalVerifier) Option {
	return func(val *Validator) { val.verifier = v }
}

// WithFallbackDelay overrides DefaultFallbackDelay. Zero delivers immediately.
func WithFallbackDelay(d time.Duration) Option {
	return func(val *Validator) {
		if d >= 0 {
			val.fallbackDelay = d
		}
	}
}

// WithTimer replaces time.After, used by tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(val *Validator) { val.after = after }
}

// NewValidator creates a new field validator
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		fallbackDelay: DefaultFallbackDelay,
		after:         time.After,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateEmail returns the interim result for raw and delivers the final
// verdict through cb from another goroutine. Empty input returns a nil
// verdict and cb is never called.
func (v *Validator) ValidateEmail(ctx context.Context, raw string, cb func(FieldResult)) FieldResult {
	return v.validate(ctx, KindEmail, raw, BasicEmail, cb)
}

// ValidatePhone is ValidateEmail for phone numbers.
func (v *Validator) ValidatePhone(ctx context.Context, raw string, cb func(FieldResult)) FieldResult {
	return v.validate(ctx, KindPhone, raw, BasicPhone, cb)
}

func (v *Validator) validate(ctx context.Context, kind Kind, raw string, local func(string) FieldResult, cb func(FieldResult)) FieldResult {
	if !local(raw).Known() {
		return FieldResult{}
	}

	var once sync.Once
	deliver := func(r FieldResult) {
		once.Do(func() {
			if cb != nil {
				cb(r)
			}
		})
	}

	go func() {
		err := v.delegate(ctx, kind, raw, deliver)
		if err == nil {
			return
		}
		if !errors.Is(err, errVerifierUnavailable) {
			logger.FromContext(ctx).Warn("External field verification failed, using local check",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}

		if v.fallbackDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-v.after(v.fallbackDelay):
			}
		}
		deliver(local(raw))
	}()

	return Checking()
}

// delegate runs the external verifier with panic recovery. Any failure is
// returned so the caller can fall back.
func (v *Validator) delegate(ctx context.Context, kind Kind, raw string, deliver func(FieldResult)) error {
	if v.verifier == nil {
		return errVerifierUnavailable
	}
	return utils.WrapWithContextRecovery(func(ctx context.Context) error {
		if !v.verifier.IsAvailable() {
			return errVerifierUnavailable
		}
		return v.verifier.Verify(ctx, kind, raw, deliver)
	})(ctx)
}
