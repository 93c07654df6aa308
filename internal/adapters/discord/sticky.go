package discord

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/jose-valero/vouch-bot/internal/sticky"
)

// StickyNotifier publica el "Vouch Guide" a través del gateway.
type StickyNotifier struct {
	gw *Gateway
}

var _ sticky.Notifier = (*StickyNotifier)(nil)

func NewStickyNotifier(gw *Gateway) *StickyNotifier { return &StickyNotifier{gw: gw} }

func (n *StickyNotifier) PostNotice(ctx context.Context, channelID string) (string, error) {
	if !n.gw.CanSticky(ctx, channelID) {
		return "", errors.Wrapf(ErrMissingPermission, "sticky in %s", channelID)
	}
	m := n.gw.SendEmbed(ctx, channelID, stickyEmbed())
	if m == nil {
		return "", errors.Newf("sticky post failed in %s", channelID)
	}
	return m.ID, nil
}

func (n *StickyNotifier) DeleteNotice(ctx context.Context, channelID, messageID string) error {
	return n.gw.Delete(ctx, channelID, messageID)
}
