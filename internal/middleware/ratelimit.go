package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/config"
)

// bucketScript keeps {n, at} in a hash: n tokens as of at (ms). Tokens are
// added in whole refill steps so a client never gets a fractional token.
// Returns {allowed, remaining, wait_ms}.
var bucketScript = redis.NewScript(`
local cap, step, every, now, ttl =
	tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local n = tonumber(redis.call('HGET', KEYS[1], 'n'))
local at = tonumber(redis.call('HGET', KEYS[1], 'at'))
if not n or not at then
	n, at = cap, now
end

local steps = math.floor(math.max(0, now - at) / every)
if steps > 0 then
	n = math.min(cap, n + steps * step)
	at = at + steps * every
end

local ok, wait = 0, 0
if n >= 1 then
	ok, n = 1, n - 1
else
	wait = math.max(0, every - (now - at))
end

redis.call('HSET', KEYS[1], 'n', n, 'at', at)
redis.call('EXPIRE', KEYS[1], ttl)
return { ok, n, wait }
`)

// NewTokenBucket throttles the public write endpoints. The bucket lives in
// Redis so every replica shares it; if Redis fails the request goes through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	limit := strconv.Itoa(cfg.Capacity)
	ttl := int64(math.Ceil(cfg.TTL.Seconds()))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), time.Now().UnixMilli(), ttl,
			).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn("rate limiter unavailable, letting request through", zap.String("key", key), zap.Error(err))
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] == 1 {
				return next(c)
			}

			wait := int(math.Ceil(float64(res[2]) / 1000))
			h.Set("Retry-After", strconv.Itoa(wait))
			if cfg.Debug {
				log.Info("rate limited", zap.String("key", key), zap.Int("retry_after", wait))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":      "Too many requests, please try again shortly",
				"retryAfter": wait,
			})
		}
	}
}

// rateKey builds prefix:<parts> for the configured strategy. "session"
// buckets cart and checkout writes per cart and falls back to the client IP
// on routes without a session.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	var parts []string
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = []string{"ip", ip}
	case "route":
		parts = []string{"route", route}
	case "session":
		if sid := c.Param("session"); sid != "" {
			parts = []string{"cart", sid, "route", route}
		} else {
			parts = []string{"ip", ip, "route", route}
		}
	case "ip_user":
		parts = []string{"ip", ip, "user", currentUserID(c)}
	default:
		parts = []string{"ip", ip, "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}
