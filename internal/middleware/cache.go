package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/config"
)

// cachedResponse is what the catalog cache stores per key. Listings are
// always JSON, so the content type is the only header worth replaying.
type cachedResponse struct {
	ContentType string `json:"ct"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response to the client and keeps up to limit bytes.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	limit    int
	overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.overflow {
		if r.limit > 0 && r.body.Len()+len(b) > r.limit {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey hashes the parts the strategy selects so query strings of any
// length map to a fixed-size key under cfg.Prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	parts := []string{c.Path()}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
	case "method_route":
		parts = append(parts, r.Method)
	case "method_route_query":
		parts = append(parts, r.Method, r.URL.RawQuery)
	default:
		parts = append(parts, r.URL.RawQuery)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache serves repeat catalog reads from Redis. Only 200 responses
// that fit in MaxBodyBytes are stored; X-Cache reports HIT or MISS. Stock
// changes drop the entries through CacheInvalidator.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			key := cacheKey(cfg, c)

			raw, err := rdb.Get(c.Request().Context(), key).Bytes()
			if err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(http.StatusOK, hit.ContentType, hit.Body)
				}
			} else if !errors.Is(err, redis.Nil) {
				log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.overflow {
				return nil
			}

			entry, err := json.Marshal(cachedResponse{
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			})
			if err == nil {
				// the request may already be cancelled once the body is out
				err = rdb.Set(context.WithoutCancel(c.Request().Context()), key, entry, ttl).Err()
			}
			if err != nil {
				log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// CacheInvalidator drops every cached response under a prefix.
type CacheInvalidator struct {
	rdb    *redis.Client
	prefix string
}

func NewCacheInvalidator(rdb *redis.Client, prefix string) *CacheInvalidator {
	return &CacheInvalidator{rdb: rdb, prefix: prefix}
}

// Invalidate scans and deletes the prefix's keys. A nil client is a no-op.
func (ci *CacheInvalidator) Invalidate(ctx context.Context) error {
	if ci == nil || ci.rdb == nil {
		return nil
	}
	iter := ci.rdb.Scan(ctx, 0, ci.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return ci.rdb.Del(ctx, keys...).Err()
}
