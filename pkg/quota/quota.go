package quota

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Metered request kinds.
const (
	KindAdvice   = "advice"
	KindContract = "contract"
)

// LimitExceededError is returned when a user has spent their daily
// allowance for a request kind. Transports map it to 429.
type LimitExceededError struct {
	Kind    string
	Limit   int
	ResetAt time.Time
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily %s limit of %d reached", e.Kind, e.Limit)
}

// Service counts daily usage per user in Redis. Counters are keyed by
// day and expire at local midnight, so a new day always starts clean.
//
// Enforcement fails open: if Redis is down or not configured, requests
// pass. Losing quota accounting for a while is cheaper than refusing
// legal help to everyone.
type Service struct {
	rdb           *redis.Client
	adviceLimit   int
	contractLimit int
	logger        *log.Logger
}

func NewService(rdb *redis.Client, adviceLimit, contractLimit int, logger *log.Logger) *Service {
	return &Service{
		rdb:           rdb,
		adviceLimit:   adviceLimit,
		contractLimit: contractLimit,
		logger:        logger,
	}
}

// Consume spends one unit of the user's daily allowance for kind. It
// returns *LimitExceededError once the allowance is gone.
func (s *Service) Consume(ctx context.Context, userId uuid.UUID, kind string) error {
	if s.rdb == nil {
		return nil
	}
	limit := s.limitFor(kind)
	if limit <= 0 {
		return nil
	}

	key := dailyKey(userId, kind, time.Now())
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		s.logger.Printf("quota: redis incr failed, allowing request: %v", err)
		return nil
	}
	if count == 1 {
		if err := s.rdb.ExpireAt(ctx, key, nextMidnight(time.Now())).Err(); err != nil {
			s.logger.Printf("quota: failed to set expiry on %s: %v", key, err)
		}
	}
	if int(count) > limit {
		return &LimitExceededError{Kind: kind, Limit: limit, ResetAt: nextMidnight(time.Now())}
	}
	return nil
}

// Remaining reports how much of the daily allowance is left, for quota
// headers and the account status endpoint.
func (s *Service) Remaining(ctx context.Context, userId uuid.UUID, kind string) int {
	limit := s.limitFor(kind)
	if s.rdb == nil || limit <= 0 {
		return limit
	}

	count, err := s.rdb.Get(ctx, dailyKey(userId, kind, time.Now())).Int()
	if err != nil && err != redis.Nil {
		s.logger.Printf("quota: redis get failed: %v", err)
		return limit
	}
	remaining := limit - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Service) limitFor(kind string) int {
	switch kind {
	case KindAdvice:
		return s.adviceLimit
	case KindContract:
		return s.contractLimit
	default:
		return 0
	}
}

func dailyKey(userId uuid.UUID, kind string, now time.Time) string {
	return fmt.Sprintf("quota:%s:%s:%s", kind, userId, now.Format("2006-01-02"))
}

func nextMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
