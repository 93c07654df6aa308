package discord

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/jose-valero/vouch-bot/internal/domain"
)

var reMention = regexp.MustCompile(`^<@!?(\d+)>$`)

// mentionID devuelve el id si tok es una mención "<@123>" o "<@!123>".
func mentionID(tok string) (string, bool) {
	if m := reMention.FindStringSubmatch(tok); len(m) == 2 {
		return m[1], true
	}
	return "", false
}

func isSnowflake(tok string) bool {
	if tok == "" || len(tok) > 20 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseIDs saca los ids de menciones en orden de aparición.
func parseIDs(args []string) []string {
	ids := []string{}
	for _, tok := range args {
		if id, ok := mentionID(tok); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// pageArg: token ausente o no numérico = página 1.
func pageArg(args []string, i int) int {
	if i >= len(args) {
		return 1
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 1
	}
	return n
}

// discordTime arma un timestamp nativo: 'f' fecha completa, 'R' relativo.
func discordTime(t time.Time, style byte) string {
	return fmt.Sprintf("<t:%d:%c>", t.Unix(), style)
}

var (
	errNoTarget    = errors.New("no target user")
	errInvalidUser = errors.New("invalid user id")
)

// targetError lleva el token que no se pudo resolver.
type targetError struct {
	cause error
	token string
}

func (e *targetError) Error() string { return e.cause.Error() + ": " + e.token }
func (e *targetError) Unwrap() error { return e.cause }

// resolveTarget toma el primer argumento como mención o id numérico.
// Sin eso cae a la primera mención del mensaje (sin consumir args).
// Devuelve el usuario y los args restantes.
func (r *Router) resolveTarget(ctx context.Context, m *discordgo.Message, args []string) (domain.UserRef, string, []string, error) {
	if len(args) > 0 {
		if id, ok := mentionID(args[0]); ok {
			ref, name := r.userFromMessage(ctx, m, id)
			return ref, name, args[1:], nil
		}
		if isSnowflake(args[0]) {
			u, err := r.gw.FetchUser(ctx, args[0])
			if err != nil {
				return domain.UserRef{}, "", args, &targetError{cause: errInvalidUser, token: args[0]}
			}
			return domain.Resolved(u.ID, u.String()), u.Username, args[1:], nil
		}
	}
	if len(m.Mentions) > 0 && m.Mentions[0] != nil {
		u := m.Mentions[0]
		return domain.Resolved(u.ID, u.String()), u.Username, args, nil
	}
	if len(args) > 0 {
		return domain.UserRef{}, "", args, &targetError{cause: errNoTarget, token: args[0]}
	}
	return domain.UserRef{}, "", args, errNoTarget
}

// userFromMessage usa los datos de la mención si vinieron en el evento.
func (r *Router) userFromMessage(ctx context.Context, m *discordgo.Message, id string) (domain.UserRef, string) {
	for _, u := range m.Mentions {
		if u != nil && u.ID == id {
			return domain.Resolved(u.ID, u.String()), u.Username
		}
	}
	u, err := r.gw.FetchUser(ctx, id)
	if err != nil {
		return domain.Unknown(id), ""
	}
	return domain.Resolved(u.ID, u.String()), u.Username
}

// lookupNames resuelve varios ids de una vez, sin repetir llamadas.
func (r *Router) lookupNames(ctx context.Context, ids ...string) names {
	out := names{}
	for _, id := range ids {
		if _, ok := out[id]; ok || id == "" {
			continue
		}
		out[id] = r.gw.ResolveUser(ctx, id).Display()
	}
	return out
}

func authorTag(m *discordgo.Message) string {
	if m.Author == nil {
		return domain.UnknownUserTag
	}
	return m.Author.String()
}
