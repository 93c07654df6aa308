package discord

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/vouch-bot/internal/infra/clock"
	"github.com/jose-valero/vouch-bot/internal/pagination"
)

func numberedPages(calls *int) renderPage {
	return func(_ context.Context, page int) (*discordgo.MessageEmbed, error) {
		*calls++
		return &discordgo.MessageEmbed{Title: "List", Description: fmt.Sprintf("items of page %d", page)}, nil
	}
}

func click(msgID, userID, customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		ChannelID: chanAllowed,
		Message:   &discordgo.Message{ID: msgID, ChannelID: chanAllowed},
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func buttonsOf(t *testing.T, comps []discordgo.MessageComponent) (prev, next discordgo.Button) {
	t.Helper()
	require.Len(t, comps, 1)
	row, ok := comps[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)
	prev = row.Components[0].(discordgo.Button)
	next = row.Components[1].(discordgo.Button)
	return prev, next
}

func newTestPager(idle time.Duration) (*Pager, *fakeSession, *clock.MockClock) {
	s := newFakeSession()
	gw := NewGateway(s, "https://cdn.example.com/koala.png", 1000)
	clk := clock.NewMockClock(t0)
	return NewPager(gw, clk, idle), s, clk
}

func TestPager_SinglePageHasNoState(t *testing.T) {
	p, s, _ := newTestPager(time.Minute)
	calls := 0
	src := &discordgo.Message{ID: "src", ChannelID: chanAllowed}
	require.NoError(t, p.Open(context.Background(), src, "1", 1, 1, numberedPages(&calls)))

	last := s.lastSent(chanAllowed)
	assert.Empty(t, last.Data.Components)
	assert.Equal(t, "items of page 1\nPage 1/1", last.Data.Embeds[0].Description)
	assert.Equal(t, "https://cdn.example.com/koala.png", last.Data.Embeds[0].Thumbnail.URL)
	assert.Zero(t, p.Len())
}

func TestPager_OwnerNavigates(t *testing.T) {
	p, s, clk := newTestPager(time.Minute)
	defer p.Close()
	calls := 0
	src := &discordgo.Message{ID: "src", ChannelID: chanAllowed}
	require.NoError(t, p.Open(context.Background(), src, "1", 1, 3, numberedPages(&calls)))
	require.Equal(t, 1, p.Len())

	open := s.lastSent(chanAllowed)
	prev, next := buttonsOf(t, open.Data.Components)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)
	assert.Equal(t, customPrev, prev.CustomID)

	clk.Add(time.Second)
	require.True(t, p.Handle(click(open.ID, "1", customNext)))
	resp := s.lastResponse()
	require.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, "items of page 2\nPage 2/3", resp.Data.Embeds[0].Description)
	prev, next = buttonsOf(t, resp.Data.Components)
	assert.False(t, prev.Disabled)
	assert.False(t, next.Disabled)

	clk.Add(time.Second)
	p.Handle(click(open.ID, "1", customNext))
	_, next = buttonsOf(t, s.lastResponse().Data.Components)
	assert.True(t, next.Disabled)
	assert.Equal(t, 3, calls)
}

func TestPager_OtherUsersOnlyGetAck(t *testing.T) {
	p, s, _ := newTestPager(time.Minute)
	defer p.Close()
	calls := 0
	require.NoError(t, p.Open(context.Background(), &discordgo.Message{ID: "src", ChannelID: chanAllowed}, "1", 1, 2, numberedPages(&calls)))
	open := s.lastSent(chanAllowed)

	require.True(t, p.Handle(click(open.ID, "intruder", customNext)))
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, s.lastResponse().Type)
	assert.Equal(t, 1, calls)

	// mensaje sin vista registrada
	require.True(t, p.Handle(click("unknown", "1", customNext)))
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, s.lastResponse().Type)

	assert.False(t, p.Handle(click(open.ID, "1", "something_else")))
}

func TestPager_ExpiresAfterIdle(t *testing.T) {
	p, s, _ := newTestPager(30 * time.Millisecond)
	calls := 0
	require.NoError(t, p.Open(context.Background(), &discordgo.Message{ID: "src", ChannelID: chanAllowed}, "1", 1, 2, numberedPages(&calls)))

	require.Eventually(t, func() bool { return s.editCount() == 1 }, time.Second, 5*time.Millisecond)
	edit := s.lastEdit()
	e := (*edit.Embeds)[0]
	assert.Contains(t, e.Description, pagination.TimedOutNote)
	prev, next := buttonsOf(t, *edit.Components)
	assert.True(t, prev.Disabled)
	assert.True(t, next.Disabled)
	assert.Zero(t, p.Len())

	// un click tardío no revive la vista
	open := s.lastSent(chanAllowed)
	p.Handle(click(open.ID, "1", customNext))
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, s.lastResponse().Type)
	assert.Equal(t, 1, s.editCount())
}

func TestPager_ExpiresOnLateClock(t *testing.T) {
	p, s, clk := newTestPager(time.Minute)
	calls := 0
	require.NoError(t, p.Open(context.Background(), &discordgo.Message{ID: "src", ChannelID: chanAllowed}, "1", 1, 2, numberedPages(&calls)))
	open := s.lastSent(chanAllowed)

	clk.Add(2 * time.Minute)
	p.Handle(click(open.ID, "1", customNext))
	assert.Equal(t, discordgo.InteractionResponseDeferredMessageUpdate, s.lastResponse().Type)
	assert.Equal(t, 1, s.editCount())
	assert.Zero(t, p.Len())
}
