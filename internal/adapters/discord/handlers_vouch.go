package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/vouch-bot/internal/app/command"
	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/domain"
	"github.com/jose-valero/vouch-bot/internal/infra/logging"
)

// !vouch <@user|id> [mensaje] + adjunto
func (r *Router) cmdVouch(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 && len(c.Msg.Mentions) == 0 {
		r.gw.Reply(ctx, c.Msg, vouchGuideEmbed(domain.NewVouchID()))
		r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiDeny)
		return nil
	}
	target, _, rest, err := r.resolveTarget(ctx, c.Msg, c.Args)
	if err != nil {
		return err
	}

	var proof string
	if len(c.Msg.Attachments) > 0 && c.Msg.Attachments[0] != nil {
		proof = c.Msg.Attachments[0].URL
	}
	defer logging.Step("vouch.grant")()
	res, err := r.vouch.Grant(ctx, service.GrantInput{
		AuthorID:   c.AuthorID(),
		SubjectID:  target.ID,
		Comment:    strings.Join(rest, " "),
		HasProof:   len(c.Msg.Attachments) > 0,
		Privileged: c.Privileged,
	})
	if err != nil {
		return err
	}
	c.Log.Info().Str("subject", target.ID).Str("vouch", res.Vouch.ID).Int64("total", res.Total).Msg("vouch granted")

	author := authorTag(c.Msg)
	r.gw.Reply(ctx, c.Msg, vouchLoggedEmbed(target.Display(), author, res.Vouch))
	r.gw.Mirror(r.channels.Log, vouchLogMirror(target.Display(), author, res.Vouch, proof))
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiOK)
	return nil
}

// !vouchgive <@user|id> count mensaje
func (r *Router) cmdVouchGive(ctx context.Context, c *Ctx) error {
	if len(c.Args) < 3 {
		return usage(command.VouchGive)
	}
	target, _, rest, err := r.resolveTarget(ctx, c.Msg, c.Args)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return usage(command.VouchGive)
	}
	count, err := strconv.Atoi(rest[0])
	if err != nil {
		return service.ErrInvalidCount
	}

	res, err := r.vouch.GrantBulk(ctx, service.BulkInput{
		AuthorID:  c.AuthorID(),
		SubjectID: target.ID,
		Count:     count,
		Message:   strings.Join(rest[1:], " "),
	})
	if err != nil {
		return err
	}
	c.Log.Info().Str("subject", target.ID).Int("requested", res.Requested).Int64("inserted", res.Inserted).Msg("bulk vouches added")

	r.gw.Reply(ctx, c.Msg, vouchesAddedEmbed(target.Display(), res))
	r.gw.Mirror(r.channels.Notification, stamp(embed("Vouches Added",
		fmt.Sprintf("Added %d vouches for %s by %s", res.Inserted, target.Display(), authorTag(c.Msg)), colorSuccess), res.At))
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiOK)
	return nil
}

// !vouches [@user|id], sin target = el autor
func (r *Router) cmdVouches(ctx context.Context, c *Ctx) error {
	target := domain.Resolved(c.AuthorID(), authorTag(c.Msg))
	username := c.Msg.Author.Username
	if len(c.Args) > 0 || len(c.Msg.Mentions) > 0 {
		var err error
		target, username, _, err = r.resolveTarget(ctx, c.Msg, c.Args)
		if err != nil {
			return err
		}
	}

	sum, err := r.vouch.Summary(ctx, target.ID)
	if err != nil {
		return err
	}
	if sum.Count == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Vouches", target.Display()+" has no vouches.", colorError))
		return nil
	}
	r.gw.Reply(ctx, c.Msg, summaryEmbed(target, username, sum))
	return nil
}

// !vouchhistory <@user|id> [page]
func (r *Router) cmdVouchHistory(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 && len(c.Msg.Mentions) == 0 {
		return usage(command.VouchHistory)
	}
	target, _, rest, err := r.resolveTarget(ctx, c.Msg, c.Args)
	if err != nil {
		return err
	}
	page := pageArg(rest, 0)

	first, err := r.vouch.History(ctx, target.ID, page)
	if err != nil {
		return err
	}
	if first.Total == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Vouches", target.Display()+" has no vouch history.", colorError))
		return nil
	}

	tag := target.Display()
	render := pagedRender(first, first.Page,
		func(ctx context.Context, page int) (service.Page, error) { return r.vouch.History(ctx, target.ID, page) },
		func(_ context.Context, p service.Page) *discordgo.MessageEmbed { return historyEmbed(tag, p) },
	)
	return r.pager.Open(ctx, c.Msg, c.AuthorID(), first.Page, first.Pages, render)
}

// pagedRender reusa el primer resultado ya consultado y pide el resto a fetch.
func pagedRender[T any](
	first T,
	firstPage int,
	fetch func(ctx context.Context, page int) (T, error),
	draw func(ctx context.Context, v T) *discordgo.MessageEmbed,
) renderPage {
	cached := true
	return func(ctx context.Context, page int) (*discordgo.MessageEmbed, error) {
		if cached && page == firstPage {
			cached = false
			return draw(ctx, first), nil
		}
		cached = false
		v, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		return draw(ctx, v), nil
	}
}
