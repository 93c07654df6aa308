// flujo de cada mensaje: parsear, autorizar, despachar y contestar errores
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/app/command"
	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/infra/metrics"
	"github.com/jose-valero/vouch-bot/internal/pagination"
)

func (r *Router) handleMessage(m *discordgo.Message) {
	// nunca contestamos a bots, incluidos nosotros
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	if r.sticky != nil && r.gate.ChannelAllowed(m.ChannelID) {
		r.sticky.Touch(m.ChannelID)
	}

	p, ok := command.Parse(m.Content)
	if !ok {
		return
	}

	d := r.gate.Authorize(m.Author.ID, m.ChannelID, p.Name)
	name := string(p.Name)
	if d.Verdict == command.Ignore {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeIgnored).Inc()
		return
	}

	logger := log.With().
		Str("cmd", name).
		Str("by", m.Author.ID).
		Str("channel", m.ChannelID).
		Str("guild", m.GuildID).
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch d.Verdict {
	case command.DenyPermission:
		logger.Info().Msg("permission denied")
		r.gw.Reply(ctx, m, permissionEmbed())
		r.gw.React(ctx, m.ChannelID, m.ID, EmojiDeny)
		metrics.Commands.WithLabelValues(name, metrics.OutcomeDenied).Inc()
		return
	case command.DenyCooldown:
		r.gw.Reply(ctx, m, commandCooldownEmbed(d.Remaining, r.clock.Now()))
		r.gw.React(ctx, m.ChannelID, m.ID, EmojiDeny)
		metrics.Commands.WithLabelValues(name, metrics.OutcomeCooldown).Inc()
		return
	}

	logger.Info().Strs("args", p.Args).Msg("command")
	start := time.Now()
	outcome := r.dispatch(ctx, &Ctx{
		Log:        logger,
		Msg:        m,
		Name:       p.Name,
		Args:       p.Args,
		Privileged: d.Privileged,
	})
	metrics.CommandLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.Commands.WithLabelValues(name, outcome).Inc()
}

func (r *Router) dispatch(ctx context.Context, c *Ctx) (outcome string) {
	defer func() {
		if rec := recover(); rec != nil {
			c.Log.Error().Interface("panic", rec).Msg("panic in command")
			r.gw.Reply(ctx, c.Msg, errorEmbed(msgGeneric))
			outcome = metrics.OutcomePanic
		}
	}()

	h, ok := r.handlers[c.Name]
	if !ok {
		return metrics.OutcomeIgnored
	}
	if err := h(ctx, c); err != nil {
		return r.fail(ctx, c, err)
	}
	return metrics.OutcomeOK
}

// fail traduce el error a la respuesta del usuario. Los errores de input
// se contestan con su mensaje; el resto se loguea y se contesta genérico.
func (r *Router) fail(ctx context.Context, c *Ctx, err error) string {
	e, isInput := replyFor(err)
	if isInput {
		c.Log.Debug().Err(err).Msg("rejected input")
	} else {
		c.Log.Error().Err(err).Msg("command failed")
	}
	r.gw.Reply(ctx, c.Msg, e)
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiDeny)
	if isInput {
		return metrics.OutcomeInputError
	}
	return metrics.OutcomeError
}

func replyFor(err error) (*discordgo.MessageEmbed, bool) {
	var (
		ue *usageError
		cd *service.CooldownError
		pe *pagination.PageError
		te *targetError
	)
	switch {
	case errors.As(err, &ue):
		return usageEmbed(ue.Usage()), true
	case errors.Is(err, service.ErrEmptyKeyword):
		return usageEmbed((&usageError{name: command.VouchSearch}).Usage()), true
	case errors.As(err, &cd):
		return embed("Cooldown Error", fmt.Sprintf("Wait %s before vouching for this user again.", service.FormatMinSec(cd.Remaining)), colorError), true
	case errors.As(err, &pe):
		return errorEmbed(pe.Error()), true
	case errors.Is(err, errInvalidUser):
		if errors.As(err, &te) {
			return errorEmbed(fmt.Sprintf("Invalid user ID: `%s`. Please provide a valid user mention or ID.", te.token)), true
		}
		return errorEmbed("Invalid user ID. Please provide a valid user mention or ID."), true
	case errors.Is(err, errNoTarget):
		return errorEmbed("Invalid user input. Please provide a user mention (e.g., @user) or a valid user ID as the first argument."), true
	case errors.Is(err, service.ErrSelfVouch):
		return errorEmbed("You can't vouch for yourself."), true
	case errors.Is(err, service.ErrProofRequired):
		return errorEmbed("No proof/screenshot attached. Please provide a screenshot to verify the vouch's authenticity."), true
	case errors.Is(err, service.ErrInvalidCount):
		return errorEmbed(fmt.Sprintf("Vouch count must be 1-%d.", service.MaxBulkCount)), true
	case errors.Is(err, service.ErrEmptyMessage):
		return errorEmbed("Message must be between 1 and 500 characters."), true
	case errors.Is(err, service.ErrSameUser):
		return errorEmbed("Source and target users must be different."), true
	}
	return errorEmbed(msgGeneric), false
}
