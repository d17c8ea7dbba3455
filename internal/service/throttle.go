package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulseofpair/pairsync/internal/model"
	redisclient "github.com/pulseofpair/pairsync/internal/redis"
)

// Minimum lifetime of a throttle key. Any key older than its cooldown is
// equivalent to an absent one, so expiry only reclaims memory.
const throttleKeyHygieneTTL = 24 * time.Hour

// throttleScript checks and stamps the last-sent time in one step.
// Returns {1, 0} when allowed, {0, remainingMs} when inside the cooldown.
var throttleScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local cooldown = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local last = redis.call('GET', key)
if last then
    local elapsed = now - tonumber(last)
    if elapsed < 0 then
        elapsed = 0
    end
    if elapsed < cooldown then
        return {0, cooldown - elapsed}
    end
end

redis.call('SET', key, ARGV[1], 'PX', ttl)
return {1, 0}
`)

// releaseScript deletes the stamp only if it is still the one we wrote.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// ThrottleDecision is the outcome of Acquire.
type ThrottleDecision struct {
	Allowed    bool
	RetryAfter time.Duration
	stamp      string
}

// RetryAfterSeconds rounds the remaining cooldown up to whole seconds.
func (d ThrottleDecision) RetryAfterSeconds() int {
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Throttle is a per-(user, prompt kind) cooldown stored in redis.
type Throttle struct {
	client *redis.Client
	now    clock
}

func NewThrottle(client *redis.Client) *Throttle {
	return &Throttle{client: client, now: time.Now}
}

// Acquire atomically admits a send when the cooldown elapsed and records it.
func (t *Throttle) Acquire(ctx context.Context, userID string, kind model.PromptKind, cooldown time.Duration) (ThrottleDecision, error) {
	nowMs := t.now().UnixMilli()
	stamp := strconv.FormatInt(nowMs, 10)

	ttl := throttleKeyHygieneTTL
	if 2*cooldown > ttl {
		ttl = 2 * cooldown
	}

	result, err := throttleScript.Run(
		ctx,
		t.client,
		[]string{redisclient.ReminderThrottleKey(userID, string(kind))},
		stamp,
		cooldown.Milliseconds(),
		ttl.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return ThrottleDecision{}, fmt.Errorf("run throttle script: %w", err)
	}
	if len(result) != 2 {
		return ThrottleDecision{}, fmt.Errorf("unexpected throttle result: %v", result)
	}

	if result[0] == 1 {
		return ThrottleDecision{Allowed: true, stamp: stamp}, nil
	}
	return ThrottleDecision{RetryAfter: time.Duration(result[1]) * time.Millisecond}, nil
}

// Release undoes an Acquire whose delivery failed, unless a newer send replaced it.
func (t *Throttle) Release(ctx context.Context, userID string, kind model.PromptKind, d ThrottleDecision) error {
	if !d.Allowed || d.stamp == "" {
		return nil
	}
	return releaseScript.Run(
		ctx,
		t.client,
		[]string{redisclient.ReminderThrottleKey(userID, string(kind))},
		d.stamp,
	).Err()
}
