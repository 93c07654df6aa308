package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/jose-valero/vouch-bot/internal/app/command"
)

type Ctx struct {
	Log zerolog.Logger
	Msg *discordgo.Message
	// Name del comando ya parseado
	Name command.Name
	Args []string
	// Privileged = autor en OWNER_IDS
	Privileged bool
}

func (c *Ctx) AuthorID() string {
	if c.Msg.Author == nil {
		return ""
	}
	return c.Msg.Author.ID
}

type CommandHandler func(ctx context.Context, c *Ctx) error
