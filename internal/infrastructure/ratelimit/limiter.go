// Package ratelimit クライアントIP単位のトークンバケット
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"paybridge/internal/infrastructure/config"
)

// Result 判定結果
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter キーごとのトークンバケット。容量は max+burst、window ごとに max トークンを連続補充する
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     rate.Limit
	capacity int
	idleTTL  time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	started  bool
	done     chan struct{}
}

// NewLimiter 新しいLimiterを作成（掃除用ゴルーチンは Start で起動）
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		rate:     rate.Limit(float64(cfg.Max) / cfg.Window.Seconds()),
		capacity: cfg.Max + cfg.Burst,
		idleTTL:  cfg.IdleTTL,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Allow 1トークン消費できれば許可。拒否時は消費しない
func (l *Limiter) Allow(key string) Result {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	l.mu.Unlock()

	result := Result{
		Allowed:   allowed,
		Limit:     l.capacity,
		Remaining: int(math.Max(0, math.Floor(tokens))),
	}
	if !allowed && l.rate > 0 {
		needed := 1 - tokens
		result.RetryAfter = time.Duration(needed / float64(l.rate) * float64(time.Second))
	}
	return result
}

// Tokens 現時点の残りトークン数（未使用のキーは容量）
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return float64(l.capacity)
	}
	return b.limiter.TokensAt(l.now())
}

// Len 保持しているバケット数
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Sweep idleTTL を超えて使われておらず、容量まで回復したバケットを削除し、削除数を返す。
// 回復途中のバケットを消すと満杯からやり直しになるため残す
func (l *Limiter) Sweep() int {
	if l.idleTTL <= 0 {
		return 0
	}
	now := l.now()
	cutoff := now.Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) && b.limiter.TokensAt(now) >= float64(l.capacity) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Start interval ごとに Sweep を実行するゴルーチンを起動
func (l *Limiter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Close 掃除用ゴルーチンを停止し、終了を待つ
func (l *Limiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})

	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		<-l.done
	}
}
