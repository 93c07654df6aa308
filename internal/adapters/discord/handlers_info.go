package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/vouch-bot/internal/app/service"
)

func (r *Router) cmdVouchStats(ctx context.Context, c *Ctx) error {
	st, err := r.vouch.Stats(ctx)
	if err != nil {
		return err
	}
	var ids []string
	if st.TopGiver != nil {
		ids = append(ids, st.TopGiver.UserID)
	}
	if st.TopRecipient != nil {
		ids = append(ids, st.TopRecipient.UserID)
	}
	r.gw.Reply(ctx, c.Msg, statsEmbed(st, r.lookupNames(ctx, ids...)))
	return nil
}

// !vouchleaderboard [page]
func (r *Router) cmdVouchLeaderboard(ctx context.Context, c *Ctx) error {
	first, err := r.vouch.Leaderboard(ctx, pageArg(c.Args, 0))
	if err != nil {
		return err
	}
	if first.Total == 0 {
		r.gw.Reply(ctx, c.Msg, embed("No Data", "No vouches found.", colorError))
		return nil
	}
	render := pagedRender(first, first.Page,
		r.vouch.Leaderboard,
		func(ctx context.Context, p service.TallyPage) *discordgo.MessageEmbed {
			ids := make([]string, 0, len(p.Items))
			for _, t := range p.Items {
				ids = append(ids, t.UserID)
			}
			return leaderboardEmbed(p, r.lookupNames(ctx, ids...))
		},
	)
	return r.pager.Open(ctx, c.Msg, c.AuthorID(), first.Page, first.Pages, render)
}

func (r *Router) cmdHelp(ctx context.Context, c *Ctx) error {
	r.gw.Reply(ctx, c.Msg, helpEmbed())
	return nil
}

func (r *Router) cmdKoala(ctx context.Context, c *Ctx) error {
	owner := ""
	if len(r.owners) > 0 {
		owner = r.owners[0]
	}
	r.gw.Reply(ctx, c.Msg, koalaEmbed(owner, r.gw.thumb))
	return nil
}
