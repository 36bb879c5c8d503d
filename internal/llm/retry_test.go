package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep records requested delays without waiting.
func noSleep(r Provider, waits *[]time.Duration) Provider {
	rp := r.(*retrying)
	rp.sleep = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
	return rp
}

func testRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}
}

func TestRetryTransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Err: &Error{Kind: KindRateLimited}},
		MockResponse{Content: []byte(`"ok"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(resp.Content))
	assert.Equal(t, 3, mock.CallCount())
	assert.Len(t, waits, 2)
}

func TestRetryGivesUp(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Content: []byte(`"never"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	_, err := p.Generate(context.Background(), Request{})
	assert.True(t, IsKind(err, KindUnavailable))
	assert.Equal(t, 3, mock.CallCount())
	assert.Len(t, waits, 2)
}

func TestRetryInvalidOnlyOnce(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindInvalidResponse}},
		MockResponse{Err: &Error{Kind: KindInvalidResponse}},
		MockResponse{Content: []byte(`"late"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	_, err := p.Generate(context.Background(), Request{})
	assert.True(t, IsKind(err, KindInvalidResponse))
	assert.Equal(t, 2, mock.CallCount())
}

func TestRetrySkipsTruncated(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindTruncated}},
		MockResponse{Content: []byte(`"ok"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	_, err := p.Generate(context.Background(), Request{})
	assert.True(t, IsKind(err, KindTruncated))
	assert.Equal(t, 1, mock.CallCount())
	assert.Empty(t, waits)
}

func TestRetryStopsOnCancel(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Content: []byte(`"ok"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: 7 * time.Second}},
		MockResponse{Content: []byte(`"ok"`)},
	)
	var waits []time.Duration
	p := noSleep(WithRetry(mock, testRetry()), &waits)

	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, waits)
}

func TestRetryDelayBounds(t *testing.T) {
	cfg := testRetry()
	for range 50 {
		d := cfg.delay(0, assert.AnError)
		assert.GreaterOrEqual(t, d, 80*time.Millisecond)
		assert.LessOrEqual(t, d, 120*time.Millisecond)

		d = cfg.delay(10, assert.AnError)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	}
}

func TestWithRetryAtLeastOneAttempt(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: []byte(`"ok"`)})
	_, err := WithRetry(mock, RetryConfig{}).Generate(context.Background(), Request{})
	require.NoError(t, err)
}

func TestWithTimeout(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: []byte(`"slow"`), Delay: time.Second})
	_, err := withTimeout(mock, 10*time.Millisecond).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
