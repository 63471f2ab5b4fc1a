package cooldown

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// evaler is the subset of *redis.Client the tracker needs
type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// KEYS[1] step key; ARGV now_ms, period_ms, lease_ms.
// Returns 1 when reserved, else the cooldown end in ms (or 0 while pending).
const reserveSrc = `
local v = redis.call('GET', KEYS[1])
if v then
  if string.sub(v, 1, 8) == 'pending:' then return 0 end
  local last = tonumber(v)
  if last and tonumber(ARGV[1]) - last < tonumber(ARGV[2]) then return -(last + tonumber(ARGV[2])) end
end
redis.call('SET', KEYS[1], 'pending:' .. ARGV[4], 'PX', ARGV[3])
return 1`

// KEYS[1]; ARGV token, detected_ms, ttl_ms. Only the holder of the lease may commit.
const commitSrc = `
if redis.call('GET', KEYS[1]) == 'pending:' .. ARGV[1] then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
  return 1
end
return 0`

// KEYS[1]; ARGV token, previous value or '', ttl_ms for a restored value.
const releaseSrc = `
if redis.call('GET', KEYS[1]) == 'pending:' .. ARGV[1] then
  if ARGV[2] == '' then redis.call('DEL', KEYS[1]) else redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3]) end
  return 1
end
return 0`

var (
	reserveScript = redis.NewScript(reserveSrc)
	commitScript  = redis.NewScript(commitSrc)
	releaseScript = redis.NewScript(releaseSrc)
)

// Redis is a Tracker shared by every detector process pointing at the same redis
type Redis struct {
	c      evaler
	prefix string
	period time.Duration
	lease  time.Duration
	token  func() string
}

var _ Tracker = (*Redis)(nil)

// RedisOption configures a Redis tracker
type RedisOption func(*Redis)

// WithPrefix sets the key prefix, default "arguxai:cooldown:"
func WithPrefix(p string) RedisOption { return func(r *Redis) { r.prefix = p } }

// WithLease bounds how long a reservation survives a crashed holder, default 1m
func WithLease(d time.Duration) RedisOption { return func(r *Redis) { r.lease = d } }

// WithTokens sets the reservation token source
func WithTokens(fn func() string) RedisOption { return func(r *Redis) { r.token = fn } }

// NewRedis builds a tracker over c (normally *redis.Client)
func NewRedis(c evaler, period time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		c:      c,
		prefix: "arguxai:cooldown:",
		period: period,
		lease:  time.Minute,
		token:  func() string { return strconv.FormatInt(time.Now().UnixNano(), 36) },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Redis) key(step string) string { return r.prefix + step }

// ttl keeps committed entries a while past cooldown; an expired key reads as never escalated
func (r *Redis) ttl() time.Duration { return r.period + 24*time.Hour }

// Reserve implements Tracker
func (r *Redis) Reserve(ctx context.Context, step string, now time.Time) (Reservation, bool, time.Time, error) {
	prev, _, err := r.Last(ctx, step)
	if err != nil {
		return nil, false, time.Time{}, err
	}
	tok := r.token()
	n, err := run(ctx, r.c, reserveScript, reserveSrc, []string{r.key(step)},
		now.UnixMilli(), r.period.Milliseconds(), r.lease.Milliseconds(), tok)
	if err != nil {
		return nil, false, time.Time{}, err
	}
	switch {
	case n == 1:
		prevVal := ""
		if !prev.IsZero() {
			prevVal = strconv.FormatInt(prev.UnixMilli(), 10)
		}
		return &redisReservation{r: r, step: step, token: tok, prev: prevVal}, true, time.Time{}, nil
	case n < 0:
		return nil, false, time.UnixMilli(-n).UTC(), nil
	default:
		return nil, false, time.Time{}, nil
	}
}

// Last implements Tracker; a pending lease reads as no committed escalation
func (r *Redis) Last(ctx context.Context, step string) (time.Time, bool, error) {
	v, err := r.c.Get(ctx, r.key(step)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, convErr := strconv.ParseInt(v, 10, 64)
	if convErr != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

type redisReservation struct {
	r     *Redis
	step  string
	token string
	prev  string
}

func (x *redisReservation) Commit(ctx context.Context, detectedAt time.Time) error {
	n, err := run(ctx, x.r.c, commitScript, commitSrc, []string{x.r.key(x.step)},
		x.token, detectedAt.UnixMilli(), x.r.ttl().Milliseconds())
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", x.step, ErrLeaseLost)
	}
	return nil
}

// Release is a no-op once the lease has expired or passed to another holder
func (x *redisReservation) Release(ctx context.Context) error {
	_, err := run(ctx, x.r.c, releaseScript, releaseSrc, []string{x.r.key(x.step)},
		x.token, x.prev, x.r.ttl().Milliseconds())
	return err
}

// run tries EVALSHA first and falls back to EVAL when the script is not cached
func run(ctx context.Context, c evaler, s *redis.Script, src string, keys []string, args ...interface{}) (int64, error) {
	cmd := c.EvalSha(ctx, s.Hash(), keys, args...)
	if err := cmd.Err(); err != nil && strings.HasPrefix(err.Error(), "NOSCRIPT") {
		cmd = c.Eval(ctx, src, keys, args...)
	}
	return cmd.Int64()
}
