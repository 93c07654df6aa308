package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/infra/clock"
	"github.com/jose-valero/vouch-bot/internal/infra/metrics"
	"github.com/jose-valero/vouch-bot/internal/pagination"
)

const (
	customPrev = "prev_page"
	customNext = "next_page"

	pagerEditTimeout = 8 * time.Second
)

// renderPage arma el embed de una página (sin el pie "Page p/N").
type renderPage func(ctx context.Context, page int) (*discordgo.MessageEmbed, error)

type pagerView struct {
	mu        sync.Mutex
	view      *pagination.View
	render    renderPage
	channelID string
	messageID string
	current   *discordgo.MessageEmbed
	timer     *time.Timer
}

// Pager mantiene las listas paginadas vivas, indexadas por id de mensaje.
type Pager struct {
	gw     *Gateway
	clock  clock.Clock
	idle   time.Duration
	clicks *userLimiter

	mu    sync.Mutex
	views map[string]*pagerView
}

func NewPager(gw *Gateway, clk clock.Clock, idle time.Duration) *Pager {
	if idle <= 0 {
		idle = pagination.IdleTimeout
	}
	return &Pager{
		gw:     gw,
		clock:  clk,
		idle:   idle,
		clicks: newUserLimiter(250*time.Millisecond, 4),
		views:  map[string]*pagerView{},
	}
}

func pagerButtons(v *pagination.View) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Previous", Style: discordgo.PrimaryButton, CustomID: customPrev, Disabled: v.PrevDisabled()},
			discordgo.Button{Label: "Next", Style: discordgo.PrimaryButton, CustomID: customNext, Disabled: v.NextDisabled()},
		},
	}
}

// Open contesta src con la página pedida. Con una sola página no hay botones
// ni estado; con más, la vista queda registrada hasta que expire.
func (p *Pager) Open(ctx context.Context, src *discordgo.Message, owner string, page, total int, render renderPage) error {
	v := pagination.NewView(owner, page, total, p.clock.Now(), p.idle)
	e, err := render(ctx, v.Page())
	if err != nil {
		return err
	}
	withPage(e, v.Page(), v.Total())

	if !v.Interactive() {
		p.gw.Reply(ctx, src, e)
		return nil
	}
	msg := p.gw.Reply(ctx, src, e, pagerButtons(v))
	if msg == nil {
		return nil
	}

	pv := &pagerView{view: v, render: render, channelID: msg.ChannelID, messageID: msg.ID, current: e}
	pv.mu.Lock()
	defer pv.mu.Unlock()
	p.mu.Lock()
	p.views[msg.ID] = pv
	p.mu.Unlock()
	metrics.PagerViews.Inc()
	pv.timer = time.AfterFunc(p.idle, func() { p.expire(msg.ID) })
	return nil
}

func (p *Pager) get(id string) *pagerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.views[id]
}

func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}

func signalFor(customID string) (pagination.Signal, bool) {
	switch customID {
	case customPrev:
		return pagination.Prev, true
	case customNext:
		return pagination.Next, true
	}
	return 0, false
}

// Handle procesa un click. Devuelve false si el componente no es del pager.
func (p *Pager) Handle(ic *discordgo.Interaction) bool {
	if ic.Type != discordgo.InteractionMessageComponent {
		return false
	}
	sig, ok := signalFor(ic.MessageComponentData().CustomID)
	if !ok {
		return false
	}
	ack := func() {
		p.gw.Respond(ic, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})
	}

	var pv *pagerView
	if ic.Message != nil {
		pv = p.get(ic.Message.ID)
	}
	actor := interactionUserID(ic)
	if pv == nil || !p.clicks.Allow(actor) {
		ack()
		return true
	}

	pv.mu.Lock()
	changed := pv.view.Handle(actor, sig, p.clock.Now())
	if !changed {
		expired := pv.view.Expired()
		pv.mu.Unlock()
		ack()
		if expired {
			p.expire(pv.messageID)
		}
		return true
	}
	defer pv.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), pagerEditTimeout)
	defer cancel()
	e, err := pv.render(ctx, pv.view.Page())
	if err != nil {
		log.Error().Err(err).Str("message", pv.messageID).Msg("pager render failed")
		ack()
		return true
	}
	withPage(e, pv.view.Page(), pv.view.Total())
	p.gw.decorate([]*discordgo.MessageEmbed{e})
	pv.current = e
	pv.timer.Reset(p.idle)

	p.gw.Respond(ic, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{e},
			Components: []discordgo.MessageComponent{pagerButtons(pv.view)},
		},
	})
	return true
}

// expire congela la vista: botones deshabilitados y nota de timeout.
// Sacarla del mapa garantiza que se edite una sola vez.
func (p *Pager) expire(id string) {
	p.mu.Lock()
	pv, ok := p.views[id]
	if ok {
		delete(p.views, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	metrics.PagerViews.Dec()

	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.timer != nil {
		pv.timer.Stop()
	}
	pv.view.Expire()

	e := *pv.current
	e.Description += "\n" + pagination.TimedOutNote
	embeds := []*discordgo.MessageEmbed{&e}
	comps := []discordgo.MessageComponent{pagerButtons(pv.view)}

	ctx, cancel := context.WithTimeout(context.Background(), pagerEditTimeout)
	defer cancel()
	p.gw.Edit(ctx, &discordgo.MessageEdit{
		ID:         pv.messageID,
		Channel:    pv.channelID,
		Embeds:     &embeds,
		Components: &comps,
	})
}

// Close expira todas las vistas abiertas (shutdown).
func (p *Pager) Close() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.views))
	for id := range p.views {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	for _, id := range ids {
		p.expire(id)
	}
}

func interactionUserID(ic *discordgo.Interaction) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}
