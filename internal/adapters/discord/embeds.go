package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/vouch-bot/internal/app/command"
	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/cooldown"
	"github.com/jose-valero/vouch-bot/internal/domain"
)

const (
	colorSuccess = 0x00FF00
	colorError   = 0xFF0000
	colorUsage   = 0xFFFF00
	colorInfo    = 0x0099FF
	colorKoala   = 0x00AA00

	footerThanks = "Thank you for using Koala Vouch Bot!"
	botVersion   = "2.0.0"

	msgGeneric = "An error occurred. Please try again later or contact the bot owner."
)

func embed(title, desc string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: desc, Color: color}
}

func stamp(e *discordgo.MessageEmbed, at time.Time) *discordgo.MessageEmbed {
	e.Timestamp = at.UTC().Format(time.RFC3339)
	return e
}

func field(name, value string, inline bool) *discordgo.MessageEmbedField {
	if value == "" {
		value = "​"
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline}
}

func errorEmbed(desc string) *discordgo.MessageEmbed { return embed("Error", desc, colorError) }

func usageEmbed(usage string) *discordgo.MessageEmbed { return embed("Usage Error", usage, colorError) }

func permissionEmbed() *discordgo.MessageEmbed {
	return embed("Permission Error", "Only bot owners can use this command.", colorError)
}

func commandCooldownEmbed(remaining time.Duration, at time.Time) *discordgo.MessageEmbed {
	secs := max(1, cooldown.CeilSeconds(remaining))
	return stamp(embed("Cooldown", fmt.Sprintf("Please wait %d seconds before using this command again.", secs), colorError), at)
}

func vouchGuideEmbed(ref string) *discordgo.MessageEmbed {
	return embed("Vouch Command Guide", "How to use !vouch:\n"+
		"- Syntax: !vouch <@user|userID> [message]\n"+
		"- <@user|userID>: Mention or ID of user\n"+
		"- [message]: Optional comment (max 500 chars)\n"+
		"- Attach a screenshot/proof\n"+
		"Example: !vouch @Koala Trusted gwapo sarap kalami.\n\n"+
		"Message ID: `"+ref+"`", colorUsage)
}

func stickyEmbed() *discordgo.MessageEmbed {
	e := embed("📜 Vouch Guide", "To vouch for someone, use this format:\n"+
		"`!vouch @user [message]` (Proof/Screenshot Required)\n"+
		"- `@user`: Mention the user you're vouching for\n"+
		"- `[message]`: Optional comment (max 500 chars)\n"+
		"- Attach a screenshot/proof\n"+
		"Example: `!vouch @Koala Trusted gwapo sarap kalami.` (with screenshot)", colorInfo)
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Koala Vouch Bot"}
	return e
}

func vouchLoggedEmbed(subject, author string, v domain.Vouch) *discordgo.MessageEmbed {
	e := embed("Vouch Logged", fmt.Sprintf("Vouch for %s by %s", subject, author), colorSuccess)
	e.Fields = []*discordgo.MessageEmbedField{
		field("Vouches", fmt.Sprintf("+%d Vouch", v.Points), true),
		field("Comment", v.Comment, false),
		field("Vouch ID", "`"+v.ID+"`", true),
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: footerThanks}
	return e
}

// copia para el canal de log, con la prueba como imagen
func vouchLogMirror(subject, author string, v domain.Vouch, proofURL string) *discordgo.MessageEmbed {
	e := embed("Vouch Logged", fmt.Sprintf("Vouch for %s by %s\nVouches: +%d\nComment: %s\nVouch ID: `%s`",
		subject, author, v.Points, v.Comment, v.ID), colorSuccess)
	if proofURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: proofURL}
	}
	return stamp(e, v.CreatedAt)
}

func vouchesAddedEmbed(subject string, r service.BulkResult) *discordgo.MessageEmbed {
	e := embed("Vouches Added", fmt.Sprintf("Added %d vouches at %s", r.Inserted, discordTime(r.At, 'f')), colorSuccess)
	e.Fields = []*discordgo.MessageEmbedField{
		field("User", subject, true),
		field("Vouches", fmt.Sprintf("+%d", r.Inserted), true),
		field("Total Vouches", fmt.Sprint(r.Total), true),
		field("Comment", r.Comment, false),
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: footerThanks}
	return e
}

func summaryEmbed(subject domain.UserRef, username string, s service.Summary) *discordgo.MessageEmbed {
	e := embed("Vouch Summary", "Vouch details for "+subject.Display(), colorSuccess)
	e.Fields = []*discordgo.MessageEmbedField{
		field("Vouches", fmt.Sprint(s.Count), true),
		field("Rating", domain.Stars(s.Points)+" "+domain.FormatRating(s.Points, s.Count), true),
	}
	if s.Latest != nil {
		e.Fields = append(e.Fields,
			field("Last Vouch", discordTime(s.Latest.CreatedAt, 'R'), true),
			field("Last Comment", domain.Ellipsis(s.Latest.Comment, 50), true),
		)
	}
	if username == "" {
		username = subject.Display()
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: "For full history, try !vouchhistory @" + username}
	return e
}

func historyEmbed(subject string, p service.Page) *discordgo.MessageEmbed {
	e := embed("Vouch History", "History for "+subject, colorSuccess)
	for i, v := range p.Items {
		e.Fields = append(e.Fields,
			field(fmt.Sprintf("%d. By", p.Offset+i+1), fmt.Sprintf("<@%s> on %s", v.AuthorID, discordTime(v.CreatedAt, 'f')), false),
			field("Vouches", fmt.Sprintf("+%d", v.Points), true),
			field("Message", orDefault(v.Comment, "No message"), false),
		)
	}
	return e
}

// names resuelve ids a tags; lo arma el handler antes de renderizar.
type names map[string]string

func (n names) tag(id string) string {
	if t, ok := n[id]; ok && t != "" {
		return t
	}
	return domain.UnknownUserTag
}

func searchEmbed(keyword, scope string, p service.Page, n names) *discordgo.MessageEmbed {
	desc := "Search results"
	if scope != "" {
		desc += " for " + scope
	}
	e := embed("Vouch Search Results", desc+"\nSearch: `"+keyword+"`", colorSuccess)
	for i, v := range p.Items {
		e.Fields = append(e.Fields,
			field(fmt.Sprintf("%d.", p.Offset+i+1), fmt.Sprintf("For %s by %s", n.tag(v.SubjectID), n.tag(v.AuthorID)), false),
			field("Vouches", fmt.Sprintf("+%d", v.Points), true),
			field("Message", orDefault(v.Comment, "No message"), false),
			field("Date", discordTime(v.CreatedAt, 'f'), false),
		)
	}
	return e
}

func leaderboardEmbed(p service.TallyPage, n names) *discordgo.MessageEmbed {
	e := embed("Vouch Leaderboard", "Top vouched users", colorSuccess)
	for i, t := range p.Items {
		e.Fields = append(e.Fields, field(fmt.Sprintf("%d.", p.Offset+i+1), fmt.Sprintf("%s - %d vouches", n.tag(t.UserID), t.Count), false))
	}
	return e
}

func statsEmbed(s service.Stats, n names) *discordgo.MessageEmbed {
	e := embed("Vouch Statistics", "System statistics", colorSuccess)
	e.Fields = []*discordgo.MessageEmbedField{field("Total Vouches", fmt.Sprint(s.Total), true)}
	if s.TopGiver != nil {
		e.Fields = append(e.Fields, field("Top Vouch Giver", fmt.Sprintf("%s (%d vouches)", n.tag(s.TopGiver.UserID), s.TopGiver.Count), true))
	}
	if s.TopRecipient != nil {
		e.Fields = append(e.Fields, field("Most Vouched User", fmt.Sprintf("%s (%d vouches)", n.tag(s.TopRecipient.UserID), s.TopRecipient.Count), true))
	}
	return e
}

func helpEmbed() *discordgo.MessageEmbed {
	var public, admin, other strings.Builder
	for _, s := range command.Table {
		line := s.Usage + " - " + s.Description + "\n"
		switch {
		case s.Name == command.Help || s.Name == command.Koala:
			other.WriteString(line)
		case s.Privileged:
			admin.WriteString(line)
		default:
			public.WriteString(line)
		}
	}
	e := embed("Koala Bot Help", "Here are all available commands:", colorInfo)
	e.Fields = []*discordgo.MessageEmbedField{
		field("Vouch Commands", "```"+public.String()+"```", false),
		field("Admin Commands", "```"+admin.String()+"```", false),
		field("Other", "```"+other.String()+"```", false),
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Need more help? Contact the bot owner"}
	return e
}

func koalaEmbed(ownerID, image string) *discordgo.MessageEmbed {
	owner := "n/a"
	if ownerID != "" {
		owner = "<@" + ownerID + ">"
	}
	e := embed("Koala Bot", "The most kupal bot on Discord!", colorKoala)
	e.Fields = []*discordgo.MessageEmbedField{
		field("Commands", "Use `!help` to see all commands", true),
		field("Owner", owner, true),
		field("Version", botVersion, true),
	}
	if image != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: image}
	}
	e.Footer = &discordgo.MessageEmbedFooter{Text: "Bawal kupal dito."}
	return e
}

func guildJoinedEmbed(g *discordgo.Guild, invite string, at time.Time) *discordgo.MessageEmbed {
	if invite == "" {
		invite = "No invite link generated"
	}
	return stamp(embed("Guild Joined",
		fmt.Sprintf("Joined %s (%s) with %d members. Invite: %s", g.Name, g.ID, g.MemberCount, invite), colorSuccess), at)
}

// withPage agrega "Page p/N" a la descripción, como todas las listas.
func withPage(e *discordgo.MessageEmbed, page, total int) *discordgo.MessageEmbed {
	e.Description += fmt.Sprintf("\nPage %d/%d", page, total)
	return e
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
