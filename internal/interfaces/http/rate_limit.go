package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiterConfig límites por usuario.
type RateLimiterConfig struct {
	GeneralRate     rate.Limit // solicitudes/seg en toda la API autenticada
	GeneralBurst    int
	StrictRate      rate.Limit // creación de invitaciones y validación con IA
	StrictBurst     int
	CleanupInterval time.Duration
}

// NewRateLimiterConfig convierte solicitudes por minuto en la configuración del limitador.
func NewRateLimiterConfig(generalRPM, strictRPM int) RateLimiterConfig {
	if generalRPM <= 0 {
		generalRPM = 120
	}
	if strictRPM <= 0 {
		strictRPM = 10
	}
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalRPM) / 60.0),
		GeneralBurst:    generalRPM,
		StrictRate:      rate.Limit(float64(strictRPM) / 60.0),
		StrictBurst:     strictRPM,
		CleanupInterval: 5 * time.Minute,
	}
}

// RateLimitRecorder recibe los rechazos; lo implementa el collector de métricas.
type RateLimitRecorder interface {
	RecordRateLimited(limiter string)
}

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// bucketSet limitadores por usuario de un mismo tipo.
type bucketSet struct {
	name  string
	rate  rate.Limit
	burst int
	mu    sync.Mutex
	users map[string]*userLimiter
}

func newBucketSet(name string, r rate.Limit, burst int) *bucketSet {
	return &bucketSet{name: name, rate: r, burst: burst, users: make(map[string]*userLimiter)}
}

func (b *bucketSet) get(userID string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	ul, ok := b.users[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(b.rate, b.burst)}
		b.users[userID] = ul
	}
	ul.lastAccess = now
	return ul.limiter
}

func (b *bucketSet) purge(now time.Time, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ul := range b.users {
		if now.Sub(ul.lastAccess) > ttl {
			delete(b.users, id)
		}
	}
}

func (b *bucketSet) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.users)
}

// RateLimiter limitador por usuario con dos niveles: general y estricto.
type RateLimiter struct {
	cfg      RateLimiterConfig
	general  *bucketSet
	strict   *bucketSet
	recorder RateLimitRecorder
	log      zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter crea el limitador y arranca la limpieza en segundo plano. recorder puede ser nil.
func NewRateLimiter(cfg RateLimiterConfig, recorder RateLimitRecorder, log zerolog.Logger) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		cfg:      cfg,
		general:  newBucketSet("general", cfg.GeneralRate, cfg.GeneralBurst),
		strict:   newBucketSet("strict", cfg.StrictRate, cfg.StrictBurst),
		recorder: recorder,
		log:      log,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop detiene la limpieza. Es idempotente.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// General middleware para toda la API autenticada. Va después de AuthMiddleware.
func (rl *RateLimiter) General() fiber.Handler {
	return rl.middleware(rl.general)
}

// Strict middleware para las operaciones costosas (invitaciones, validación con IA).
func (rl *RateLimiter) Strict() fiber.Handler {
	return rl.middleware(rl.strict)
}

// GeneralCount usuarios con limitador general activo (tests).
func (rl *RateLimiter) GeneralCount() int { return rl.general.len() }

func (rl *RateLimiter) middleware(b *bucketSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "no autenticado", nil)
		}
		if !b.get(userID, time.Now()).Allow() {
			if rl.recorder != nil {
				rl.recorder.RecordRateLimited(b.name)
			}
			rl.log.Warn().Str("user_id", userID).Str("limit_type", b.name).Msg("límite de solicitudes excedido")
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter(b.rate)))
			return fail(c, fiber.StatusTooManyRequests, CodeRateLimited, "demasiadas solicitudes, intente más tarde", nil)
		}
		return c.Next()
	}
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			ttl := rl.cfg.CleanupInterval * 2
			rl.general.purge(now, ttl)
			rl.strict.purge(now, ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// retryAfter segundos hasta que se repone un token.
func retryAfter(r rate.Limit) int {
	if r <= 0 {
		return 60
	}
	sec := int(math.Ceil(1.0 / float64(r)))
	if sec < 1 {
		sec = 1
	}
	return sec
}
