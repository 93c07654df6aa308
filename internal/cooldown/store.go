package cooldown

import (
	"sync"
	"time"
)

// Key identifica una entrada: un usuario en un comando.
type Key struct {
	UserID  string
	Command string
}

// Store guarda expiraciones. Arm debe ser atómico: si hay una entrada activa
// (expira después de now) la devuelve sin tocarla; si no, arma expiresAt.
type Store interface {
	Arm(k Key, now, expiresAt time.Time) (active time.Time, armed bool)
	Sweep(now time.Time) int
	Len() int
}

const defaultSweepEvery = 1000

// MemoryStore: mapa con mutex y GC oportunista cada sweepEvery operaciones.
type MemoryStore struct {
	mu         sync.Mutex
	until      map[Key]time.Time
	ops        uint64
	sweepEvery uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{until: map[Key]time.Time{}, sweepEvery: defaultSweepEvery}
}

// WithSweepEvery cambia la frecuencia del GC oportunista (tests).
func (s *MemoryStore) WithSweepEvery(n uint64) *MemoryStore {
	if n == 0 {
		n = 1
	}
	s.sweepEvery = n
	return s
}

func (s *MemoryStore) Arm(k Key, now, expiresAt time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// GC antes de mirar la key pedida, así una entrada vieja también se limpia
	s.ops++
	if s.ops >= s.sweepEvery {
		s.sweepLocked(now)
		s.ops = 0
	}

	if until, ok := s.until[k]; ok && now.Before(until) {
		return until, false
	}
	s.until[k] = expiresAt
	return expiresAt, true
}

func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	n := 0
	for k, until := range s.until {
		if !now.Before(until) {
			delete(s.until, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.until)
}
