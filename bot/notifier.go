package bot

import (
	"context"
	"fmt"

	"nerdbot/bot/common"
	"nerdbot/bot/features/collectibles"
	"nerdbot/models"
	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
)

// ChannelNotifier posts collectible announcements through a discord session
type ChannelNotifier struct {
	session *discordgo.Session
	prefix  string
}

// NewChannelNotifier creates a notifier that advertises claim commands with prefix
func NewChannelNotifier(session *discordgo.Session, prefix string) *ChannelNotifier {
	return &ChannelNotifier{session: session, prefix: prefix}
}

var _ service.Notifier = (*ChannelNotifier)(nil)

func (n *ChannelNotifier) AnnounceClaimable(ctx context.Context, channelID int64, kind models.ClaimableKind) (int64, error) {
	msg, err := n.session.ChannelMessageSendEmbed(common.FormatID(channelID), collectibles.BuildSpawnEmbed(kind, n.prefix), discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to announce %s in channel %d: %w", kind, channelID, err)
	}
	return common.ParseID(msg.ID)
}

func (n *ChannelNotifier) MarkClaimed(ctx context.Context, claimable models.ActiveClaimable, claimant service.Member, reward int64) error {
	embed := collectibles.BuildClaimedEmbed(claimable.Kind, claimant.DisplayName, reward)
	_, err := n.session.ChannelMessageEditEmbed(
		common.FormatID(claimable.ChannelID),
		common.FormatID(claimable.MessageID),
		embed,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to edit announcement %d: %w", claimable.MessageID, err)
	}
	return nil
}

func (n *ChannelNotifier) RetractClaimable(ctx context.Context, claimable models.ActiveClaimable) error {
	err := n.session.ChannelMessageDelete(common.FormatID(claimable.ChannelID), common.FormatID(claimable.MessageID), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete announcement %d: %w", claimable.MessageID, err)
	}
	return nil
}
