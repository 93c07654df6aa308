package discord

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter frena el spam de clicks en los botones del pager, por usuario.
type userLimiter struct {
	mu    sync.Mutex
	users map[string]*limiterEntry
	every time.Duration
	burst int
	ops   int
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newUserLimiter(every time.Duration, burst int) *userLimiter {
	return &userLimiter{users: map[string]*limiterEntry{}, every: every, burst: burst}
}

func (l *userLimiter) Allow(userID string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ops++
	if l.ops%500 == 0 {
		l.gc(now)
	}
	e, ok := l.users[userID]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Every(l.every), l.burst)}
		l.users[userID] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// gc saca usuarios inactivos; su bucket ya estaría lleno de todos modos.
func (l *userLimiter) gc(now time.Time) {
	idle := l.every * time.Duration(l.burst+1)
	for id, e := range l.users {
		if now.Sub(e.seen) > idle {
			delete(l.users, id)
		}
	}
}

func (l *userLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}
