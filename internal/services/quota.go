package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"portfolio-backend/internal/kvstore"
	"portfolio-backend/internal/logger"
)

const quotaKeyPrefix = "chatbot_ratelimit_"

// QuotaKeyTTL bounds how long a day's counter lingers in stores that expire keys.
const QuotaKeyTTL = 48 * time.Hour

// QuotaLimiter enforces a per-identity, per-UTC-day question budget on top of a kvstore.Store.
//
// Admission is two-phase. Check is a read-only pre-flight used to short-circuit
// callers that are already over budget. Reserve claims one slot with the store's
// bounded increment, so the counter never passes the max even under concurrent
// requests. Release returns a slot when the completion call fails after a
// successful Reserve.
type QuotaLimiter struct {
	store kvstore.Store
	max   int
	now   func() time.Time
	log   zerolog.Logger
}

// Ticket is a claimed quota slot.
type Ticket struct {
	Key   string
	Count int // counter value including this ticket
	Max   int
}

func NewQuotaLimiter(store kvstore.Store, maxQuestions int) *QuotaLimiter {
	return &QuotaLimiter{
		store: store,
		max:   maxQuestions,
		now:   time.Now,
		log:   logger.Component("quota"),
	}
}

// WithClock overrides the wall clock. Used by tests and the CLI.
func (q *QuotaLimiter) WithClock(now func() time.Time) *QuotaLimiter {
	q.now = now
	return q
}

func (q *QuotaLimiter) Max() int { return q.max }

// Today returns the current UTC calendar date in YYYY-MM-DD form.
func (q *QuotaLimiter) Today() string {
	return q.now().UTC().Format("2006-01-02")
}

// Key builds the counter key for identity on date.
func Key(identity, date string) string {
	return quotaKeyPrefix + identity + "_" + date
}

// Usage returns the stored count for the key, treating a missing key as zero.
// Counts above the max (left by an earlier limit) are reported as the max.
func (q *QuotaLimiter) Usage(ctx context.Context, key string) (int, error) {
	val, found, err := q.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	if !found {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("quota counter %s holds %q: %w", key, val, kvstore.ErrNotInteger)
	}
	return q.capped(n), nil
}

func (q *QuotaLimiter) capped(n int) int {
	if n > q.max {
		return q.max
	}
	return n
}

// Check reads the identity's counter for date. It returns the counter key and the
// current count, or a *QuotaExceededError when count >= max. It never writes.
func (q *QuotaLimiter) Check(ctx context.Context, identity, date string) (string, int, error) {
	key := Key(identity, date)
	count, err := q.Usage(ctx, key)
	if err != nil {
		return key, 0, err
	}
	if count >= q.max {
		return key, count, &QuotaExceededError{QuestionsAsked: count, MaxQuestions: q.max}
	}
	return key, count, nil
}

// Reserve atomically claims one question on key.
func (q *QuotaLimiter) Reserve(ctx context.Context, key string) (*Ticket, error) {
	n, ok, err := q.store.IncrBelow(ctx, key, int64(q.max))
	if err != nil {
		return nil, fmt.Errorf("failed to reserve quota: %w", err)
	}
	if !ok {
		return nil, &QuotaExceededError{QuestionsAsked: q.capped(int(n)), MaxQuestions: q.max}
	}
	return &Ticket{Key: key, Count: int(n), Max: q.max}, nil
}

// Release hands a reserved question back. The context is detached from the
// caller's so a cancelled request still gives its slot back.
func (q *QuotaLimiter) Release(ctx context.Context, t *Ticket) {
	if t == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := q.store.IncrBy(ctx, t.Key, -1); err != nil {
		q.log.Error().Err(err).Str("key", t.Key).Msg("failed to release quota reservation")
	}
}

// Reset sets the counter for identity on date back to zero.
func (q *QuotaLimiter) Reset(ctx context.Context, identity, date string) error {
	if err := q.store.Set(ctx, Key(identity, date), "0"); err != nil {
		return fmt.Errorf("failed to reset quota: %w", err)
	}
	return nil
}

// IsQuotaExceeded reports whether err is a quota rejection.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
