package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// handleMessageComponent: por ahora los únicos componentes son los botones del pager.
func (r *Router) handleMessageComponent(ic *discordgo.Interaction) {
	if ic == nil || ic.Type != discordgo.InteractionMessageComponent {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("channel", ic.ChannelID).Msg("panic in component handler")
		}
	}()

	if r.pager.Handle(ic) {
		return
	}
	log.Debug().Str("custom_id", ic.MessageComponentData().CustomID).Msg("unknown component")
}
