package httpapi

import (
	"crypto/subtle"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/logger"
)

const (
	apiKeyHeader    = "X-API-Key"
	requestIDHeader = "X-Request-ID"
)

// requestLogger assigns a request id, logs the request and records
// metrics. Chain errors are rendered here so the logged status matches
// the response.
func requestLogger(rec RequestRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDHeader, rid)

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		route := c.Route().Path

		if rec != nil {
			rec.RecordHTTPRequest(c.Method(), route, status, elapsed)
		}

		log := logger.Component("http")
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		} else if status >= fiber.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("request")
		return nil
	}
}

// apiKeyAuth rejects requests without the configured key. An empty key
// disables the check. Paths in skip are always allowed.
func apiKeyAuth(key string, skip ...string) fiber.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(c *fiber.Ctx) error {
		if key == "" || skipped[c.Path()] {
			return c.Next()
		}
		got := c.Get(apiKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or missing API key")
		}
		return c.Next()
	}
}

// ipRateLimiter keeps one token bucket per client IP. A bucket holds max
// tokens and refills one token every window/max.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	every    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sweepThreshold is the map size above which idle visitors are dropped.
const sweepThreshold = 10000

func newIPRateLimiter(window time.Duration, max int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     window,
		now:      time.Now,
	}
}

// reserve takes a token for ip. It returns zero when allowed, or how long
// the caller must wait.
func (l *ipRateLimiter) reserve(ip string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= sweepThreshold {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now

	r := v.limiter.ReserveN(now, 1)
	if !r.OK() {
		return l.idle
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return delay
	}
	return 0
}

func (l *ipRateLimiter) sweep(now time.Time) {
	for ip, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.limiters, ip)
		}
	}
}

func (l *ipRateLimiter) handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if wait := l.reserve(c.IP()); wait > 0 {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later")
		}
		return c.Next()
	}
}

// errorHandler renders every error as the JSON error body.
func errorHandler(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(errorResponse{Error: true, Message: message, Code: code})
}

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// statusFor maps an error to a status code and client-safe message.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrUnsupportedType):
		return fiber.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrExtraction):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, "An unexpected error occurred"
	}
}
