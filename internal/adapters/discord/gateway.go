package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jose-valero/vouch-bot/internal/domain"
	"github.com/jose-valero/vouch-bot/internal/infra/metrics"
)

const (
	EmojiOK   = "✅"
	EmojiDeny = "❌"

	mirrorTimeout = 15 * time.Second
)

var (
	// ErrMissingPermission: el bot no puede hacer la acción en ese canal.
	ErrMissingPermission = errors.New("missing channel permission")
	// ErrUnknownUser: el id no resuelve a un usuario de Discord.
	ErrUnknownUser = errors.New("unknown user")
)

// Gateway envuelve la sesión: chequea permisos, decora embeds y
// convierte fallos de transporte en logs. Nunca propaga errores de red
// al flujo del comando salvo donde el caller los necesita.
type Gateway struct {
	s     Session
	thumb string

	mu    sync.RWMutex
	botID string

	mirrors *rate.Limiter
	wg      sync.WaitGroup
}

func NewGateway(s Session, thumbnail string, mirrorRPS float64) *Gateway {
	if mirrorRPS <= 0 {
		mirrorRPS = 1
	}
	return &Gateway{
		s:       s,
		thumb:   thumbnail,
		mirrors: rate.NewLimiter(rate.Limit(mirrorRPS), 3),
	}
}

func (g *Gateway) SetBotID(id string) {
	g.mu.Lock()
	g.botID = id
	g.mu.Unlock()
}

func (g *Gateway) BotID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.botID
}

// can consulta los permisos del bot en el canal. Si no se pueden
// calcular dejamos que la API decida.
func (g *Gateway) can(ctx context.Context, channelID string, need int64) bool {
	bot := g.BotID()
	if bot == "" || channelID == "" {
		return channelID != ""
	}
	perms, err := g.s.UserChannelPermissions(bot, channelID, discordgo.WithContext(ctx))
	if err != nil {
		log.Debug().Err(err).Str("channel", channelID).Msg("permission lookup failed")
		return true
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return perms&need == need
}

func (g *Gateway) decorate(embeds []*discordgo.MessageEmbed) {
	if g.thumb == "" {
		return
	}
	for _, e := range embeds {
		if e != nil && e.Thumbnail == nil {
			e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: g.thumb}
		}
	}
}

func failure(op, channelID string, err error) {
	metrics.GatewayFailures.WithLabelValues(op).Inc()
	log.Warn().Err(err).Str("op", op).Str("channel", channelID).Msg("discord call failed")
}

// Send publica en un canal. Devuelve nil si no se pudo.
func (g *Gateway) Send(ctx context.Context, channelID string, data *discordgo.MessageSend) *discordgo.Message {
	need := int64(permsSend)
	if len(data.Embeds) > 0 {
		need = permsEmbed
	}
	if !g.can(ctx, channelID, need) {
		failure("send", channelID, ErrMissingPermission)
		return nil
	}
	g.decorate(data.Embeds)
	m, err := g.s.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		failure("send", channelID, err)
		return nil
	}
	return m
}

func (g *Gateway) SendEmbed(ctx context.Context, channelID string, e *discordgo.MessageEmbed) *discordgo.Message {
	return g.Send(ctx, channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{e}})
}

// Reply responde referenciando src; si la referencia falla (mensaje
// borrado, etc.) cae a un envío normal.
func (g *Gateway) Reply(ctx context.Context, src *discordgo.Message, e *discordgo.MessageEmbed, comps ...discordgo.MessageComponent) *discordgo.Message {
	data := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{e},
		Components: comps,
		Reference:  src.Reference(),
	}
	if !g.can(ctx, src.ChannelID, permsEmbed) {
		failure("reply", src.ChannelID, ErrMissingPermission)
		return nil
	}
	g.decorate(data.Embeds)
	m, err := g.s.ChannelMessageSendComplex(src.ChannelID, data, discordgo.WithContext(ctx))
	if err == nil {
		return m
	}
	log.Debug().Err(err).Str("channel", src.ChannelID).Msg("reply failed, sending plain")
	data.Reference = nil
	m, err = g.s.ChannelMessageSendComplex(src.ChannelID, data, discordgo.WithContext(ctx))
	if err != nil {
		failure("reply", src.ChannelID, err)
		return nil
	}
	return m
}

func (g *Gateway) React(ctx context.Context, channelID, messageID, emoji string) {
	if !g.can(ctx, channelID, permsReact) {
		failure("react", channelID, ErrMissingPermission)
		return
	}
	if err := g.s.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		failure("react", channelID, err)
	}
}

func (g *Gateway) Edit(ctx context.Context, edit *discordgo.MessageEdit) bool {
	g.decorate(derefEmbeds(edit.Embeds))
	if _, err := g.s.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		failure("edit", edit.Channel, err)
		return false
	}
	return true
}

func (g *Gateway) Delete(ctx context.Context, channelID, messageID string) error {
	if err := g.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		metrics.GatewayFailures.WithLabelValues("delete").Inc()
		return errors.Wrapf(err, "delete message %s", messageID)
	}
	return nil
}

func (g *Gateway) Respond(ic *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := g.s.InteractionRespond(ic, resp); err != nil {
		failure("respond", ic.ChannelID, err)
	}
}

// CheckChannels valida al arrancar los canales de mirror (log, notificación).
// Devuelve los que no sirven; el bot sigue andando sin ellos.
func (g *Gateway) CheckChannels(ctx context.Context, ids ...string) []string {
	var bad []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		ch, err := g.s.Channel(id, discordgo.WithContext(ctx))
		switch {
		case err != nil:
			log.Warn().Err(err).Str("channel", id).Msg("mirror channel not reachable")
		case ch.Type != discordgo.ChannelTypeGuildText && ch.Type != discordgo.ChannelTypeGuildNews:
			log.Warn().Str("channel", id).Int("type", int(ch.Type)).Msg("mirror channel is not a text channel")
		case !g.can(ctx, id, permsEmbed):
			log.Warn().Str("channel", id).Msg("missing send/embed permission in mirror channel")
		default:
			continue
		}
		bad = append(bad, id)
	}
	return bad
}

// FetchUser resuelve un id a usuario; ErrUnknownUser si Discord no lo conoce.
func (g *Gateway) FetchUser(ctx context.Context, id string) (*discordgo.User, error) {
	u, err := g.s.User(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "fetch user %s", id), ErrUnknownUser)
	}
	if u == nil {
		return nil, errors.Wrapf(ErrUnknownUser, "fetch user %s", id)
	}
	return u, nil
}

// ResolveUser nunca falla: si no se puede leer el usuario devuelve Unknown.
func (g *Gateway) ResolveUser(ctx context.Context, id string) domain.UserRef {
	if id == "" {
		return domain.Unknown(id)
	}
	u, err := g.FetchUser(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("user", id).Msg("user lookup failed")
		return domain.Unknown(id)
	}
	return domain.Resolved(u.ID, u.String())
}

// CanSticky: alcanza con poder mandar embeds; borrar un mensaje propio no pide permisos.
func (g *Gateway) CanSticky(ctx context.Context, channelID string) bool {
	return g.can(ctx, channelID, permsEmbed)
}

// CanInvite: para elegir canal donde crear el invite.
func (g *Gateway) CanInvite(ctx context.Context, channelID string) bool {
	return g.can(ctx, channelID, permsInvite)
}

// CreateInvite crea un invite de un solo uso válido por maxAge.
func (g *Gateway) CreateInvite(ctx context.Context, channelID string, maxAge time.Duration) (string, error) {
	if !g.can(ctx, channelID, permsInvite) {
		return "", ErrMissingPermission
	}
	inv, err := g.s.ChannelInviteCreate(channelID, discordgo.Invite{
		MaxAge:  int(maxAge / time.Second),
		MaxUses: 1,
		Unique:  true,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.Wrapf(err, "create invite in %s", channelID)
	}
	return "https://discord.gg/" + inv.Code, nil
}

// Mirror publica una copia en un canal de log/notificación en background,
// limitado por MIRROR_RPS. Canal vacío = desactivado.
func (g *Gateway) Mirror(channelID string, e *discordgo.MessageEmbed) {
	if channelID == "" || e == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := g.mirrors.Wait(ctx); err != nil {
			failure("mirror", channelID, err)
			return
		}
		g.SendEmbed(ctx, channelID, e)
	}()
}

// Wait bloquea hasta que terminen los mirrors en vuelo.
func (g *Gateway) Wait() { g.wg.Wait() }

func derefEmbeds(p *[]*discordgo.MessageEmbed) []*discordgo.MessageEmbed {
	if p == nil {
		return nil
	}
	return *p
}
