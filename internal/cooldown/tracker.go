package cooldown

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/infra/clock"
)

// Tracker limita cuántas veces un usuario puede usar un comando por ventana.
type Tracker struct {
	store Store
	clock clock.Clock
}

func NewTracker(store Store, c clock.Clock) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Tracker{store: store, clock: c}
}

// CheckAndArm: si no hay entrada activa arma now+window y devuelve ok.
// Si la hay, devuelve lo que falta sin resetearla.
func (t *Tracker) CheckAndArm(userID, command string, window time.Duration) (time.Duration, bool) {
	if window <= 0 {
		return 0, true
	}
	now := t.clock.Now()
	until, armed := t.store.Arm(Key{UserID: userID, Command: command}, now, now.Add(window))
	if armed {
		return 0, true
	}
	return until.Sub(now), false
}

func (t *Tracker) Len() int { return t.store.Len() }

// Run barre entradas vencidas cada every hasta que ctx termine.
func (t *Tracker) Run(ctx context.Context, every time.Duration) {
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			if n := t.store.Sweep(t.clock.Now()); n > 0 {
				log.Debug().Int("evicted", n).Msg("cooldown sweep")
			}
		}
	}
}

// CeilSeconds redondea hacia arriba: 1.2s -> 2.
func CeilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	s := int64(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
