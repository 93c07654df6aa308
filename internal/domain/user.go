package domain

import (
	"fmt"
	"math"
	"strings"
)

const UnknownUserTag = "Unknown User"

// UserRef es el resultado de resolver un usuario contra el directorio de la
// plataforma: Resolved (tenemos tag) o Unknown (solo el id, o ni eso).
type UserRef struct {
	ID    string
	Tag   string
	known bool
}

func Resolved(id, tag string) UserRef { return UserRef{ID: id, Tag: tag, known: true} }

func Unknown(id string) UserRef { return UserRef{ID: id, Tag: UnknownUserTag} }

func (u UserRef) Known() bool { return u.known }

// Display devuelve el tag si lo conocemos, si no "Unknown User".
func (u UserRef) Display() string {
	if !u.known || u.Tag == "" {
		return UnknownUserTag
	}
	return u.Tag
}

// Mention arma la mención de Discord; vacío si no hay id.
func (u UserRef) Mention() string {
	if u.ID == "" {
		return ""
	}
	return "<@" + u.ID + ">"
}

// Stars: 0..5 estrellas, una cada 100 puntos.
func Stars(points int64) string {
	n := int(math.Floor(math.Max(0, math.Min(5, float64(points)/100))))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// Rating escala los puntos contra un máximo de 5 por vouch (tope 100 vouches).
func Rating(totalPoints, count int64) float64 {
	if count <= 0 {
		return 0
	}
	maxPoints := float64(min(100, count) * 5)
	r := float64(totalPoints) / maxPoints * 5
	return math.Round(r*100) / 100
}

func FormatRating(totalPoints, count int64) string {
	return fmt.Sprintf("%.2f", Rating(totalPoints, count))
}
