package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	MaxCommentLen  = 500
	MaxPoints      = 50000
	DefaultComment = "No comment provided"
)

var (
	ErrPointsOutOfRange = errors.New("points out of range")
	ErrCommentTooLong   = errors.New("comment too long")
	ErrEmptyComment     = errors.New("comment is required")
)

// Vouch es el único registro persistente del ledger.
// Nunca se borra físicamente: Deleted marca el soft delete.
type Vouch struct {
	ID        string
	SubjectID string // quien recibe
	AuthorID  string // quien da el vouch
	Points    int
	Comment   string
	CreatedAt time.Time
	Deleted   bool
}

func (v Vouch) Validate() error {
	if v.Points < 0 || v.Points > MaxPoints {
		return ErrPointsOutOfRange
	}
	if strings.TrimSpace(v.Comment) == "" {
		return ErrEmptyComment
	}
	if utf8.RuneCountInString(v.Comment) > MaxCommentLen {
		return ErrCommentTooLong
	}
	return nil
}

// Tally: resultado de una agregación agrupada (top givers / top recipients).
type Tally struct {
	UserID string
	Count  int64
}

// NewVouchID genera un id v4; la unicidad la garantiza el store.
func NewVouchID() string { return uuid.NewString() }

// NormalizeComment recorta a MaxCommentLen y aplica el default si viene vacío.
func NormalizeComment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultComment
	}
	return Truncate(s, MaxCommentLen)
}

// Truncate corta por runas, no por bytes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Ellipsis corta a n runas y agrega "..." solo si hubo corte.
func Ellipsis(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return Truncate(s, n) + "..."
}
