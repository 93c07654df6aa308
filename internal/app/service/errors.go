package service

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// Errores de input del usuario: se contestan y nunca se reintentan.
var (
	ErrSelfVouch     = errors.New("self vouch")
	ErrProofRequired = errors.New("proof attachment required")
	ErrInvalidCount  = errors.New("vouch count out of range")
	ErrEmptyMessage  = errors.New("empty message")
	ErrSameUser      = errors.New("source and target are the same user")
	ErrEmptyKeyword  = errors.New("empty search keyword")
)

// ErrPersistence marca cualquier fallo del store; el adapter contesta genérico.
var ErrPersistence = errors.New("persistence failure")

func persistence(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrPersistence)
}

// CooldownError: el autor ya dio vouch a este usuario dentro de la ventana.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return "vouch cooldown: " + FormatMinSec(e.Remaining) + " remaining"
}

// FormatMinSec: segundos redondeados hacia arriba, "Xm Ys".
func FormatMinSec(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

// IsUserError: errores que se le contestan al usuario con su propio mensaje.
func IsUserError(err error) bool {
	var cd *CooldownError
	return errors.Is(err, ErrSelfVouch) ||
		errors.Is(err, ErrProofRequired) ||
		errors.Is(err, ErrInvalidCount) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrSameUser) ||
		errors.Is(err, ErrEmptyKeyword) ||
		errors.As(err, &cd)
}
