package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/vouch-bot/internal/domain"
)

func TestGateway_PermissionPrecheck(t *testing.T) {
	s := newFakeSession()
	gw := NewGateway(s, "", 1000)
	gw.SetBotID("bot")
	ctx := context.Background()

	s.perms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	assert.Nil(t, gw.SendEmbed(ctx, "c1", embed("t", "d", colorInfo)), "embeds need EmbedLinks")
	assert.NotNil(t, gw.Send(ctx, "c1", &discordgo.MessageSend{Content: "plain"}))

	gw.React(ctx, "c1", "m1", EmojiOK)
	assert.Empty(t, s.reactions)

	s.perms = discordgo.PermissionAdministrator
	assert.NotNil(t, gw.SendEmbed(ctx, "c1", embed("t", "d", colorInfo)))
}

func TestGateway_DecoratesThumbnail(t *testing.T) {
	s := newFakeSession()
	gw := NewGateway(s, "https://cdn.example.com/k.gif", 1000)
	custom := &discordgo.MessageEmbed{Thumbnail: &discordgo.MessageEmbedThumbnail{URL: "keep"}}
	gw.Send(context.Background(), "c1", &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed("a", "b", 1), custom}})

	got := s.lastSent("c1").Data.Embeds
	assert.Equal(t, "https://cdn.example.com/k.gif", got[0].Thumbnail.URL)
	assert.Equal(t, "keep", got[1].Thumbnail.URL)
}

func TestGateway_ResolveUser(t *testing.T) {
	s := newFakeSession()
	s.addUser("1", "alice")
	gw := NewGateway(s, "", 1000)
	ctx := context.Background()

	u := gw.ResolveUser(ctx, "1")
	assert.True(t, u.Known())
	assert.Equal(t, "alice", u.Display())

	u = gw.ResolveUser(ctx, "404")
	assert.False(t, u.Known())
	assert.Equal(t, domain.UnknownUserTag, u.Display())

	_, err := gw.FetchUser(ctx, "404")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownUser))
}

func TestGateway_MirrorSkipsEmptyChannel(t *testing.T) {
	s := newFakeSession()
	gw := NewGateway(s, "", 1000)
	gw.Mirror("", embed("a", "b", 1))
	gw.Mirror("log", embed("a", "b", 1))
	gw.Wait()
	assert.Len(t, s.sent, 1)
	assert.Equal(t, "log", s.sent[0].ChannelID)
}

func TestStickyNotifier(t *testing.T) {
	s := newFakeSession()
	gw := NewGateway(s, "", 1000)
	gw.SetBotID("bot")
	n := NewStickyNotifier(gw)
	ctx := context.Background()

	id, err := n.PostNotice(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "📜 Vouch Guide", s.last("c1").Title)
	require.NoError(t, n.DeleteNotice(ctx, "c1", id))
	assert.Equal(t, []string{"c1/" + id}, s.deleted)

	// sin ManageMessages igual se publica
	s.perms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks
	id2, err := n.PostNotice(ctx, "c1")
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)

	s.perms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	_, err = n.PostNotice(ctx, "c1")
	assert.True(t, errors.Is(err, ErrMissingPermission), "sticky needs EmbedLinks")
}

func TestParseHelpers(t *testing.T) {
	id, ok := mentionID("<@!123>")
	assert.True(t, ok)
	assert.Equal(t, "123", id)
	_, ok = mentionID("hello<@123>")
	assert.False(t, ok)

	assert.Equal(t, []string{"1", "2"}, parseIDs([]string{"<@1>", "x", "3", "<@2>"}))
	assert.Equal(t, 1, pageArg(nil, 0))
	assert.Equal(t, 1, pageArg([]string{"abc"}, 0))
	assert.Equal(t, 4, pageArg([]string{"4"}, 0))
	assert.Equal(t, -2, pageArg([]string{"-2"}, 0))
	assert.True(t, isSnowflake("1139540844853084172"))
	assert.False(t, isSnowflake("12a"))
}

func TestCommandCooldownEmbed_RoundsUp(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Please wait 2 seconds before using this command again.",
		commandCooldownEmbed(1200*time.Millisecond, at).Description)
	assert.Equal(t, "Please wait 1 seconds before using this command again.",
		commandCooldownEmbed(0, at).Description)
}

func TestGateway_CheckChannels(t *testing.T) {
	s := newFakeSession()
	s.channels["voice"] = discordgo.ChannelTypeGuildVoice
	gw := NewGateway(s, "", 1000)
	gw.SetBotID("bot")
	ctx := context.Background()

	assert.Equal(t, []string{"missing", "voice"}, gw.CheckChannels(ctx, "log", "", "missing", "voice"))

	s.perms = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	assert.Equal(t, []string{"log"}, gw.CheckChannels(ctx, "log"))
}
