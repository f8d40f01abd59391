package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

func setupTestLogger(t *testing.T) {
	original := logger.Log
	logger.Log = zaptest.NewLogger(t)
	t.Cleanup(func() { logger.Log = original })
}

func TestSafeGo(t *testing.T) {
	setupTestLogger(t)

	done := make(chan struct{})
	SafeGo(func() { close(done) }, nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function did not execute in time")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var recovered interface{}
	SafeGo(func() {
		panic("test panic")
	}, func(r interface{}, stack []byte) {
		defer wg.Done()
		recovered = r
	})
	wg.Wait()
	assert.Equal(t, "test panic", recovered)
}

func TestSafeGo_DefaultHandlerDoesNotCrash(t *testing.T) {
	setupTestLogger(t)

	done := make(chan struct{})
	SafeGo(func() {
		defer close(done)
		panic("unhandled")
	}, nil)
	<-done
}

func TestRecoverWithLog(t *testing.T) {
	setupTestLogger(t)

	assert.NotPanics(t, func() {
		defer RecoverWithLog(context.Background(), "unit-test")
		panic("boom")
	})
}

func TestWrapWithContextRecovery(t *testing.T) {
	setupTestLogger(t)
	ctx := logger.WithLogger(context.Background(), zaptest.NewLogger(t))

	ok := WrapWithContextRecovery(func(ctx context.Context) error { return nil })
	assert.NoError(t, ok(ctx))

	failing := WrapWithContextRecovery(func(ctx context.Context) error { return errors.New("test error") })
	assert.EqualError(t, failing(ctx), "test error")

	panicking := WrapWithContextRecovery(func(ctx context.Context) error { panic("test panic") })
	assert.EqualError(t, panicking(ctx), "panic recovered: test panic")
}
