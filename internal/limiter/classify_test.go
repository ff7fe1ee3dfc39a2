package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/star-syncer/pkg/log"
)

type kindedError struct {
	kind  Kind
	after time.Duration
}

func (e *kindedError) Error() string             { return "kinded error" }
func (e *kindedError) Kind() Kind                { return e.kind }
func (e *kindedError) RetryAfter() time.Duration { return e.after }

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		expect Kind
	}{
		{nil, KindSuccess},
		{errors.New("401 Unauthorized"), KindAuthInvalid},
		{errors.New("bad credentials"), KindAuthInvalid},
		{errors.New("429 Too Many Requests"), KindRateLimited},
		{errors.New("API rate limit exceeded"), KindRateLimited},
		{errors.New("403 Forbidden"), KindRateLimited},
		{errors.New("404 Not Found"), KindNotFound},
		{errors.New("repository not found"), KindNotFound},
		{errors.New("i/o timeout"), KindTransient},
		{errors.New("connection reset by peer"), KindTransient},
		{errors.New("502 Bad Gateway"), KindTransient},
		{errors.New("invalid payload shape"), KindFatal},
		{&kindedError{kind: KindAuthInvalid}, KindAuthInvalid},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.expect)
		}
	}
}

func TestRetryAfterHint(t *testing.T) {
	assert.Equal(t, time.Duration(0), RetryAfterHint(errors.New("plain")))
	assert.Equal(t, 42*time.Second, RetryAfterHint(&kindedError{kind: KindRateLimited, after: 42 * time.Second}))
}

func TestControllerRetriesTransientUntilSuccess(t *testing.T) {
	logger, _ := log.NewCslLogger()
	slept := []time.Duration{}
	backoff := NewBackoff(time.Second, 8*time.Second, 2)
	backoff.Sleep = func(d time.Duration) { slept = append(slept, d) }

	controller, err := NewController(logger, backoff)
	require.NoError(t, err)

	attempts := 0
	err = controller.Do(context.Background(), "test op", func() error {
		attempts++
		if attempts < 4 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, slept)
}

func TestControllerUsesRateLimitHint(t *testing.T) {
	logger, _ := log.NewCslLogger()
	slept := []time.Duration{}
	backoff := NewBackoff(time.Second, time.Minute, 2)
	backoff.Sleep = func(d time.Duration) { slept = append(slept, d) }

	controller, _ := NewController(logger, backoff)

	attempts := 0
	err := controller.Do(context.Background(), "test op", func() error {
		attempts++
		if attempts == 1 {
			return &kindedError{kind: KindRateLimited, after: 30 * time.Second}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second}, slept)
}

func TestControllerPropagatesTerminalErrors(t *testing.T) {
	logger, _ := log.NewCslLogger()
	backoff := NewBackoff(time.Second, time.Minute, 2)
	backoff.Sleep = func(time.Duration) { t.Fatal("must not sleep on terminal errors") }

	controller, _ := NewController(logger, backoff)

	for _, kind := range []Kind{KindAuthInvalid, KindNotFound, KindFatal} {
		attempts := 0
		err := controller.Do(context.Background(), "test op", func() error {
			attempts++
			return &kindedError{kind: kind}
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts, "kind %v must not retry", kind)
	}
}
