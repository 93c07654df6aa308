package sticky

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/jose-valero/vouch-bot/internal/infra/metrics"
)

const (
	DefaultInterval = 5 * time.Minute
	defaultDebounce = 2 * time.Second
	refreshTimeout  = 10 * time.Second
)

// Notifier es lo único que el manager necesita del transporte.
type Notifier interface {
	PostNotice(ctx context.Context, channelID string) (messageID string, err error)
	DeleteNotice(ctx context.Context, channelID, messageID string) error
}

// Store: canal -> id del último aviso publicado.
type Store interface {
	Get(channelID string) (string, bool)
	Put(channelID, messageID string)
}

type MemoryStore struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{last: map[string]string{}} }

func (s *MemoryStore) Get(ch string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.last[ch]
	return id, ok
}

func (s *MemoryStore) Put(ch, id string) {
	s.mu.Lock()
	s.last[ch] = id
	s.mu.Unlock()
}

// Manager mantiene un aviso "pegado" al final de cada canal permitido.
type Manager struct {
	n        Notifier
	store    Store
	channels []string
	interval time.Duration
	debounce time.Duration

	sf     singleflight.Group
	tmu    sync.Mutex
	timers map[string]*time.Timer
}

type Option func(*Manager)

func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(m *Manager) { m.debounce = d }
}

func WithStore(s Store) Option {
	return func(m *Manager) {
		if s != nil {
			m.store = s
		}
	}
}

func NewManager(n Notifier, channels []string, opts ...Option) *Manager {
	m := &Manager{
		n:        n,
		store:    NewMemoryStore(),
		channels: append([]string(nil), channels...),
		interval: DefaultInterval,
		debounce: defaultDebounce,
		timers:   map[string]*time.Timer{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Refresh borra el aviso anterior (si falla, seguimos) y publica uno nuevo.
// Llamadas concurrentes para el mismo canal comparten una sola ejecución.
func (m *Manager) Refresh(ctx context.Context, channelID string) error {
	_, err, _ := m.sf.Do(channelID, func() (any, error) {
		return nil, m.refresh(ctx, channelID)
	})
	return err
}

func (m *Manager) refresh(ctx context.Context, channelID string) error {
	if prev, ok := m.store.Get(channelID); ok && prev != "" {
		if err := m.n.DeleteNotice(ctx, channelID, prev); err != nil {
			log.Debug().Err(err).Str("channel", channelID).Str("msg", prev).Msg("sticky: delete previous failed")
		}
	}
	id, err := m.n.PostNotice(ctx, channelID)
	if err != nil {
		metrics.StickyRefreshes.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("channel", channelID).Msg("sticky: post failed")
		return err
	}
	m.store.Put(channelID, id)
	metrics.StickyRefreshes.WithLabelValues("ok").Inc()
	return nil
}

// Touch programa un refresh con debounce: ráfagas de mensajes = un solo repost.
func (m *Manager) Touch(channelID string) {
	if m.debounce <= 0 {
		go m.refreshDetached(channelID)
		return
	}
	m.tmu.Lock()
	defer m.tmu.Unlock()
	if t, ok := m.timers[channelID]; ok {
		t.Stop()
	}
	m.timers[channelID] = time.AfterFunc(m.debounce, func() {
		m.tmu.Lock()
		delete(m.timers, channelID)
		m.tmu.Unlock()
		m.refreshDetached(channelID)
	})
}

func (m *Manager) refreshDetached(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	_ = m.Refresh(ctx, channelID)
}

// RefreshAll refresca todos los canales en paralelo y espera.
func (m *Manager) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, ch := range m.channels {
		wg.Add(1)
		go func(ch string) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()
			_ = m.Refresh(cctx, ch)
		}(ch)
	}
	wg.Wait()
}

// Run publica al arrancar y luego cada interval hasta que ctx termine.
func (m *Manager) Run(ctx context.Context) {
	if len(m.channels) == 0 {
		return
	}
	m.RefreshAll(ctx)

	tk := time.NewTicker(m.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			m.stopTimers()
			return
		case <-tk.C:
			m.RefreshAll(ctx)
		}
	}
}

func (m *Manager) stopTimers() {
	m.tmu.Lock()
	defer m.tmu.Unlock()
	for ch, t := range m.timers {
		t.Stop()
		delete(m.timers, ch)
	}
}
