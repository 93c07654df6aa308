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
)

// !vouchremove <@user|id>
func (r *Router) cmdVouchRemove(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 && len(c.Msg.Mentions) == 0 {
		return usage(command.VouchRemove)
	}
	target, _, _, err := r.resolveTarget(ctx, c.Msg, c.Args)
	if err != nil {
		return err
	}
	n, err := r.vouch.Remove(ctx, target.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Vouches", target.Display()+" has no vouches to remove.", colorError))
		return nil
	}
	c.Log.Info().Str("subject", target.ID).Int64("rows", n).Msg("vouches removed")

	r.gw.Reply(ctx, c.Msg, embed("Vouch Removal", fmt.Sprintf("Removed %d vouches for %s.", n, target.Display()), colorSuccess))
	r.gw.Mirror(r.channels.Log, stamp(embed("Vouches Removed",
		fmt.Sprintf("%s removed %d vouches for %s", authorTag(c.Msg), n, target.Display()), colorError), r.clock.Now()))
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiOK)
	return nil
}

// !restorevouches <@user|id>
func (r *Router) cmdRestoreVouches(ctx context.Context, c *Ctx) error {
	if len(c.Args) == 0 && len(c.Msg.Mentions) == 0 {
		return usage(command.RestoreVouches)
	}
	target, _, _, err := r.resolveTarget(ctx, c.Msg, c.Args)
	if err != nil {
		return err
	}
	n, err := r.vouch.Restore(ctx, target.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Vouches", target.Display()+" has no removed vouches to restore.", colorError))
		return nil
	}
	c.Log.Info().Str("subject", target.ID).Int64("rows", n).Msg("vouches restored")

	r.gw.Reply(ctx, c.Msg, embed("Vouch Restore", fmt.Sprintf("Restored %d vouches for %s.", n, target.Display()), colorSuccess))
	r.gw.Mirror(r.channels.Log, stamp(embed("Vouches Restored",
		fmt.Sprintf("%s restored %d vouches for %s", authorTag(c.Msg), n, target.Display()), colorSuccess), r.clock.Now()))
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiOK)
	return nil
}

// !vouchtransfer <@from> <@to>: exactamente dos menciones, en ese orden
func (r *Router) cmdVouchTransfer(ctx context.Context, c *Ctx) error {
	ids := parseIDs(c.Args)
	if len(ids) != 2 {
		return usage(command.VouchTransfer)
	}
	if ids[0] == ids[1] {
		return service.ErrSameUser
	}
	from, _ := r.userFromMessage(ctx, c.Msg, ids[0])
	to, _ := r.userFromMessage(ctx, c.Msg, ids[1])

	n, err := r.vouch.Transfer(ctx, from.ID, to.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Vouches", from.Display()+" has no vouches to transfer.", colorError))
		return nil
	}
	c.Log.Info().Str("subject", from.ID).Str("to", to.ID).Int64("rows", n).Msg("vouches transferred")

	desc := fmt.Sprintf("Transferred %d vouches from %s to %s.", n, from.Display(), to.Display())
	now := r.clock.Now()
	r.gw.Reply(ctx, c.Msg, embed("Vouch Transfer", desc, colorSuccess))
	r.gw.Mirror(r.channels.Log, stamp(embed("Vouch Transferred",
		fmt.Sprintf("%s transferred %d vouches from %s to %s", authorTag(c.Msg), n, from.Display(), to.Display()), colorSuccess), now))
	r.gw.Mirror(r.channels.Notification, stamp(embed("Vouch Transfer Notification", desc, colorSuccess), now))
	r.gw.React(ctx, c.Msg.ChannelID, c.Msg.ID, EmojiOK)
	return nil
}

// !vouchsearch [@user] keyword... [page]
func (r *Router) cmdVouchSearch(ctx context.Context, c *Ctx) error {
	args := c.Args
	var scope domain.UserRef
	if len(args) > 0 {
		if id, ok := mentionID(args[0]); ok {
			scope, _ = r.userFromMessage(ctx, c.Msg, id)
			args = args[1:]
		}
	}
	// un entero al final siempre es la página, aunque deje el keyword vacío
	page := 1
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			page = n
			args = args[:len(args)-1]
		}
	}
	keyword := strings.Join(args, " ")

	in := service.SearchInput{Keyword: keyword, SubjectID: scope.ID, Page: page}
	first, err := r.vouch.Search(ctx, in)
	if err != nil {
		return err
	}
	scopeTag := ""
	if scope.ID != "" {
		scopeTag = scope.Display()
	}
	if first.Total == 0 {
		desc := fmt.Sprintf("No vouches found for %q", keyword)
		if scopeTag != "" {
			desc += " for " + scopeTag
		}
		r.gw.Reply(ctx, c.Msg, embed("No Results", desc+".", colorError))
		return nil
	}

	render := pagedRender(first, first.Page,
		func(ctx context.Context, page int) (service.Page, error) {
			q := in
			q.Page = page
			return r.vouch.Search(ctx, q)
		},
		func(ctx context.Context, p service.Page) *discordgo.MessageEmbed {
			ids := make([]string, 0, 2*len(p.Items))
			for _, v := range p.Items {
				ids = append(ids, v.SubjectID, v.AuthorID)
			}
			return searchEmbed(keyword, scopeTag, p, r.lookupNames(ctx, ids...))
		},
	)
	return r.pager.Open(ctx, c.Msg, c.AuthorID(), first.Page, first.Pages, render)
}
