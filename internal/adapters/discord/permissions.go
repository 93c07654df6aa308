package discord

import "github.com/bwmarrin/discordgo"

// Permisos que el bot necesita por acción, chequeados antes de llamar a la API.
const (
	permsSend   = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	permsEmbed  = permsSend | discordgo.PermissionEmbedLinks
	permsReact  = discordgo.PermissionViewChannel | discordgo.PermissionAddReactions
	permsInvite = discordgo.PermissionCreateInstantInvite
)
