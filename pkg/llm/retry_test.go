package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetriableDefaultMatchesTransientPatterns(t *testing.T) {
	assert.True(t, IsRetriableDefault(errors.New("upstream returned 503")))
	assert.True(t, IsRetriableDefault(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsRetriableDefault(errors.New("invalid request: missing field")))
	assert.False(t, IsRetriableDefault(nil))
}

func TestIsRetriableDefaultRejectsContextErrors(t *testing.T) {
	assert.False(t, IsRetriableDefault(context.Canceled))
	assert.False(t, IsRetriableDefault(context.DeadlineExceeded))
}

func TestRetryOnceSucceedsOnFirstTry(t *testing.T) {
	calls := 0
	resp, err := retryOnce(context.Background(), func() (Response, error) {
		calls++
		return Response{Content: "ok"}, nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 1, calls)
}

func TestRetryOnceHonorsNotRetriablePredicate(t *testing.T) {
	calls := 0
	sentinel := errors.New("do not retry me")
	_, err := retryOnce(context.Background(), func() (Response, error) {
		calls++
		return Response{}, sentinel
	}, func(e error) bool { return errors.Is(e, sentinel) })
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}
