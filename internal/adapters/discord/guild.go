package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const inviteMaxAge = 24 * time.Hour

// handleGuildCreate avisa al canal de notificaciones cuando el bot entra a
// un servidor nuevo. Los GuildCreate del arranque (servidores ya unidos) se ignoran.
func (r *Router) handleGuildCreate(g *discordgo.Guild) {
	if g == nil || g.Unavailable || r.channels.Notification == "" {
		return
	}
	if g.JoinedAt.IsZero() || !g.JoinedAt.After(r.startedAt) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	logger := log.With().Str("guild", g.ID).Str("name", g.Name).Logger()
	invite := ""
	for _, ch := range g.Channels {
		if ch == nil || ch.Type != discordgo.ChannelTypeGuildText || !r.gw.CanInvite(ctx, ch.ID) {
			continue
		}
		url, err := r.gw.CreateInvite(ctx, ch.ID, inviteMaxAge)
		if err != nil {
			logger.Warn().Err(err).Str("channel", ch.ID).Msg("invite failed")
			continue
		}
		invite = url
		break
	}
	logger.Info().Int("members", g.MemberCount).Bool("invite", invite != "").Msg("joined guild")
	r.gw.SendEmbed(ctx, r.channels.Notification, guildJoinedEmbed(g, invite, r.clock.Now()))
}
