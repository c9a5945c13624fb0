package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/kenerlee/navix-server/config"
)

const (
	limiterSweepEvery = 10 * time.Minute
	limiterIdleTTL    = 30 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit 公开接口的按 IP 限流，防短信轰炸和表单灌水
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = rpm
	}

	var (
		mu        sync.Mutex
		limiters  = make(map[string]*ipLimiter)
		lastSweep = time.Now()
	)

	// 闲置 IP 在请求路径上顺带清理，防止 map 无限增长。
	// 不起后台协程，中间件随路由一起被回收。
	sweep := func(now time.Time) {
		if now.Sub(lastSweep) < limiterSweepEvery {
			return
		}
		lastSweep = now
		for ip, l := range limiters {
			if now.Sub(l.lastSeen) > limiterIdleTTL {
				delete(limiters, ip)
			}
		}
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		sweep(now)
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), burst)}
			limiters[ip] = l
		}
		l.lastSeen = now
		mu.Unlock()

		if !l.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}

		c.Next()
	}
}
