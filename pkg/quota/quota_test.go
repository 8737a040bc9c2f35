package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// deadRedis returns a client whose every command fails at dial time,
// without touching the network.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		},
		MaxRetries: -1,
	})
}

func TestConsumeFailsOpenWhenRedisDown(t *testing.T) {
	s := NewService(deadRedis(), 10, 5, discardLogger())

	err := s.Consume(context.Background(), uuid.New(), KindAdvice)
	assert.NoError(t, err)

	err = s.Consume(context.Background(), uuid.New(), KindContract)
	assert.NoError(t, err)
}

func TestConsumeAllowsWithoutRedis(t *testing.T) {
	s := NewService(nil, 10, 5, discardLogger())
	assert.NoError(t, s.Consume(context.Background(), uuid.New(), KindAdvice))
}

func TestConsumeUnknownKindUnmetered(t *testing.T) {
	s := NewService(deadRedis(), 10, 5, discardLogger())
	assert.NoError(t, s.Consume(context.Background(), uuid.New(), "export"))
}

func TestRemainingFullWhenRedisDown(t *testing.T) {
	s := NewService(deadRedis(), 10, 5, discardLogger())

	assert.Equal(t, 10, s.Remaining(context.Background(), uuid.New(), KindAdvice))
	assert.Equal(t, 5, s.Remaining(context.Background(), uuid.New(), KindContract))
	assert.Equal(t, 0, s.Remaining(context.Background(), uuid.New(), "export"))
}

func TestLimitExceededErrorUnwrapsThroughHandlers(t *testing.T) {
	resetAt := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	err := fmt.Errorf("advice turn rejected: %w", &LimitExceededError{
		Kind:    KindAdvice,
		Limit:   3,
		ResetAt: resetAt,
	})

	var limitErr *LimitExceededError
	assert.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, resetAt, limitErr.ResetAt)
	assert.Contains(t, limitErr.Error(), "advice")
	assert.Contains(t, limitErr.Error(), "3")
}

func TestNextMidnightRollsTheCounterWindow(t *testing.T) {
	late := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), nextMidnight(late))

	monthEnd := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nextMidnight(monthEnd))
}
