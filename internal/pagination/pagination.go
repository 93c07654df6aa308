package pagination

import (
	"fmt"
	"sync"
	"time"
)

// IdleTimeout: sin input del dueño durante este tiempo la vista se congela.
const IdleTimeout = 120 * time.Second

const TimedOutNote = "*Interaction timed out*"

type Signal int

const (
	Prev Signal = iota
	Next
)

// Pages = ceil(n/per), mínimo 1 para que "sin resultados" siga siendo una página.
func Pages(n, per int) int {
	if per <= 0 || n <= 0 {
		return 1
	}
	return (n + per - 1) / per
}

// Bounds devuelve el rango [start,end) de la página (1-based) sobre n items.
func Bounds(page, n, per int) (int, int) {
	start := (page - 1) * per
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + per
	if end > n {
		end = n
	}
	return start, end
}

// PageError: página fuera de rango pedida por el usuario.
type PageError struct {
	Page  int
	Total int
}

func (e *PageError) Error() string {
	if e.Page < 1 {
		return "Page number must be 1 or greater."
	}
	return fmt.Sprintf("Page must be 1-%d.", e.Total)
}

func Validate(page, n, per int) error {
	total := Pages(n, per)
	if page < 1 || page > total {
		return &PageError{Page: page, Total: total}
	}
	return nil
}

// View es la máquina de estados de una lista paginada enviada a un canal.
type View struct {
	mu       sync.Mutex
	owner    string
	page     int
	total    int
	idle     time.Duration
	deadline time.Time
	expired  bool
}

// NewView arranca en page (acotada a [1,total]). idle <= 0 usa IdleTimeout.
func NewView(owner string, page, total int, now time.Time, idle time.Duration) *View {
	if total < 1 {
		total = 1
	}
	if idle <= 0 {
		idle = IdleTimeout
	}
	v := &View{owner: owner, total: total, idle: idle}
	v.page = clamp(page, 1, total)
	v.deadline = now.Add(v.idle)
	return v
}

// Interactive: con una sola página no se renderizan controles.
func (v *View) Interactive() bool { return v.total > 1 }

func (v *View) Owner() string { return v.owner }

func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

func (v *View) Total() int { return v.total }

func (v *View) Deadline() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deadline
}

func (v *View) Expired() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expired
}

// Handle aplica un input. Devuelve true si la página cambió.
// Inputs de otros usuarios o después de expirar se ignoran.
func (v *View) Handle(actor string, s Signal, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.expired || !now.Before(v.deadline) {
		v.expired = true
		return false
	}
	if actor != v.owner {
		return false
	}
	// cada input válido del dueño extiende la vida de la vista
	v.deadline = now.Add(v.idle)

	next := v.page
	switch s {
	case Prev:
		next--
	case Next:
		next++
	}
	next = clamp(next, 1, v.total)
	if next == v.page {
		return false
	}
	v.page = next
	return true
}

// Expire congela la vista. Devuelve false si ya estaba expirada.
func (v *View) Expire() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.expired {
		return false
	}
	v.expired = true
	return true
}

func (v *View) PrevDisabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expired || v.page <= 1
}

func (v *View) NextDisabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.expired || v.page >= v.total
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
