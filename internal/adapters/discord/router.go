package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/app/command"
	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/infra/clock"
	"github.com/jose-valero/vouch-bot/internal/sticky"
)

const commandTimeout = 12 * time.Second

// Channels: destinos de los mirrors. Vacío = no se publica.
type Channels struct {
	Notification string
	Log          string
}

type Router struct {
	gw     *Gateway
	pager  *Pager
	gate   *command.Gate
	vouch  *service.VouchService
	sticky *sticky.Manager
	clock  clock.Clock

	channels  Channels
	owners    []string
	startedAt time.Time
	timeout   time.Duration

	handlers map[command.Name]CommandHandler
}

// NewRouter arma el router. sticky puede ser nil (sin canales permitidos).
func NewRouter(
	gw *Gateway,
	pager *Pager,
	gate *command.Gate,
	vouch *service.VouchService,
	st *sticky.Manager,
	clk clock.Clock,
	channels Channels,
	owners []string,
) *Router {
	r := &Router{
		gw:        gw,
		pager:     pager,
		gate:      gate,
		vouch:     vouch,
		sticky:    st,
		clock:     clk,
		channels:  channels,
		owners:    owners,
		startedAt: clk.Now(),
		timeout:   commandTimeout,
	}
	r.handlers = r.commandTable()
	return r
}

// Handlers registra los eventos del gateway en la sesión.
func (r *Router) Handlers(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, ev *discordgo.Ready) {
		r.gw.SetBotID(ev.User.ID)
		log.Info().Str("bot", ev.User.String()).Int("guilds", len(ev.Guilds)).Msg("discord ready")
	})

	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		r.handleMessage(m.Message)
	})

	s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		r.handleMessageComponent(ic.Interaction)
	})

	s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		r.handleGuildCreate(g.Guild)
	})
}
