package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/vouch-bot/internal/adapters/assets"
	"github.com/jose-valero/vouch-bot/internal/adapters/discord"
	"github.com/jose-valero/vouch-bot/internal/adapters/httpops"
	"github.com/jose-valero/vouch-bot/internal/app/command"
	"github.com/jose-valero/vouch-bot/internal/app/service"
	"github.com/jose-valero/vouch-bot/internal/cooldown"
	"github.com/jose-valero/vouch-bot/internal/infra/clock"
	"github.com/jose-valero/vouch-bot/internal/infra/config"
	"github.com/jose-valero/vouch-bot/internal/infra/logging"
	"github.com/jose-valero/vouch-bot/internal/pagination"
	"github.com/jose-valero/vouch-bot/internal/sticky"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	ledger, err := openLedger(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("ledger store")
	}
	defer ledger.Close()
	log.Info().Str("driver", ledger.driver).Msg("✅ DB lista y migrada")

	clk := clock.NewRealClock()

	// cooldowns de comandos + barrido periódico
	tracker := cooldown.NewTracker(cooldown.NewMemoryStore(), clk)
	go tracker.Run(ctx, time.Minute)

	gate := command.NewGate(cfg.AllowedChannelIDs, cfg.OwnerIDs, tracker, cfg.CommandCooldown())
	vouchSvc := service.NewVouchService(ledger.repo, clk, cfg.VouchCooldown())

	thumb := checkThumbnail(ctx, cfg.ThumbnailURL)

	// Discord
	s, err := discordgo.New(cfg.BotToken())
	if err != nil {
		log.Fatal().Err(err).Msg("discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	gw := discord.NewGateway(s, thumb, cfg.MirrorRPS)
	pager := discord.NewPager(gw, clk, pagination.IdleTimeout)

	var stickyMgr *sticky.Manager
	if len(cfg.AllowedChannelIDs) > 0 {
		stickyMgr = sticky.NewManager(
			discord.NewStickyNotifier(gw),
			cfg.AllowedChannelIDs,
			sticky.WithInterval(cfg.StickyInterval),
		)
	}

	r := discord.NewRouter(gw, pager, gate, vouchSvc, stickyMgr, clk,
		discord.Channels{
			Notification: cfg.NotificationChannelID,
			Log:          cfg.LogChannelID,
		},
		cfg.OwnerIDs,
	)
	r.Handlers(s)

	if err := s.Open(); err != nil {
		log.Fatal().Err(err).Msg("discord open")
	}
	defer s.Close()
	gw.SetBotID(s.State.User.ID)
	if bad := gw.CheckChannels(ctx, cfg.NotificationChannelID, cfg.LogChannelID); len(bad) > 0 {
		log.Warn().Strs("channels", bad).Msg("some mirror channels are unusable; mirrors there will fail")
	}
	log.Info().
		Str("user", s.State.User.Username).
		Str("id", s.State.User.ID).
		Strs("channels", cfg.AllowedChannelIDs).
		Msg("✅ Conectado")

	if stickyMgr != nil {
		go stickyMgr.Run(ctx)
	}

	// healthz + metrics
	go func() {
		if err := httpops.New(ledger.db).Start(ctx, cfg.HTTPAddr); err != nil {
			log.Error().Err(err).Msg("ops http")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	pager.Close()
	gw.Wait()
}

// checkThumbnail valida THUMBNAIL_URL; una URL inválida se descarta,
// una que no responde solo genera un warning.
func checkThumbnail(ctx context.Context, raw string) string {
	if raw == "" {
		return ""
	}
	thumb := assets.ValidateThumbnail(raw)
	if thumb == "" {
		log.Warn().Str("url", raw).Msg("THUMBNAIL_URL is not an image url, ignoring")
		return ""
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := assets.New().Probe(pctx, thumb); err != nil {
		log.Warn().Err(err).Str("url", thumb).Msg("thumbnail probe failed")
	}
	return thumb
}
