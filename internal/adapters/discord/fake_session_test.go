package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
)

type sent struct {
	ChannelID string
	Data      *discordgo.MessageSend
	ID        string
}

type fakeSession struct {
	mu     sync.Mutex
	nextID int

	sent      []sent
	edits     []*discordgo.MessageEdit
	deleted   []string
	reactions []string
	responses []*discordgo.InteractionResponse
	invites   []discordgo.Invite

	users        map[string]*discordgo.User
	perms        int64
	rejectReply  bool
	failSendTo   map[string]bool
	failInviteIn map[string]bool
	channels     map[string]discordgo.ChannelType
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		users:        map[string]*discordgo.User{},
		perms:        discordgo.PermissionAllText | discordgo.PermissionCreateInstantInvite,
		failSendTo:   map[string]bool{},
		failInviteIn: map[string]bool{},
		channels:     map[string]discordgo.ChannelType{},
	}
}

func (f *fakeSession) addUser(id, name string) *discordgo.User {
	u := &discordgo.User{ID: id, Username: name, Discriminator: "0"}
	f.mu.Lock()
	f.users[id] = u
	f.mu.Unlock()
	return u
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSendTo[channelID] {
		return nil, errors.New("send failed")
	}
	if data.Reference != nil && f.rejectReply {
		return nil, errors.New("unknown message")
	}
	f.nextID++
	id := fmt.Sprintf("m%d", f.nextID)
	f.sent = append(f.sent, sent{ChannelID: channelID, Data: data, ID: id})
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, messageID+":"+emojiID)
	return nil
}

func (f *fakeSession) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		return u, nil
	}
	return nil, errors.New("HTTP 404 Not Found, Unknown User")
}

// Channel: sin registro en channels se asume canal de texto; "missing" da 404.
func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if channelID == "missing" {
		return nil, errors.New("HTTP 404 Not Found, Unknown Channel")
	}
	t, ok := f.channels[channelID]
	if !ok {
		t = discordgo.ChannelTypeGuildText
	}
	return &discordgo.Channel{ID: channelID, Type: t}, nil
}

func (f *fakeSession) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perms, nil
}

func (f *fakeSession) ChannelInviteCreate(channelID string, i discordgo.Invite, _ ...discordgo.RequestOption) (*discordgo.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInviteIn[channelID] {
		return nil, errors.New("invite failed")
	}
	f.invites = append(f.invites, i)
	return &discordgo.Invite{Code: "abc" + channelID}, nil
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

// snapshots

func (f *fakeSession) sentTo(channelID string) []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sent
	for _, s := range f.sent {
		if s.ChannelID == channelID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeSession) last(channelID string) *discordgo.MessageEmbed {
	s := f.sentTo(channelID)
	if len(s) == 0 || len(s[len(s)-1].Data.Embeds) == 0 {
		return nil
	}
	return s[len(s)-1].Data.Embeds[0]
}

func (f *fakeSession) lastSent(channelID string) sent {
	s := f.sentTo(channelID)
	if len(s) == 0 {
		return sent{}
	}
	return s[len(s)-1]
}

func (f *fakeSession) reactionsOn(messageID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.reactions {
		if len(r) > len(messageID) && r[:len(messageID)+1] == messageID+":" {
			out = append(out, r[len(messageID)+1:])
		}
	}
	return out
}

func (f *fakeSession) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func (f *fakeSession) lastEdit() *discordgo.MessageEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return nil
	}
	return f.edits[len(f.edits)-1]
}

var _ Session = (*fakeSession)(nil)
