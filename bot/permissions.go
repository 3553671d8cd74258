package bot

import (
	"context"
	"fmt"

	"nerdbot/bot/common"
	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
)

// ChannelPermissionSetter edits member overwrites on guild channels
type ChannelPermissionSetter struct {
	session *discordgo.Session
}

func NewChannelPermissionSetter(session *discordgo.Session) *ChannelPermissionSetter {
	return &ChannelPermissionSetter{session: session}
}

var _ service.PermissionSetter = (*ChannelPermissionSetter)(nil)

// SetChannelSendPermission flips only the send bit of the member's overwrite,
// keeping whatever else the overwrite already allows or denies.
func (p *ChannelPermissionSetter) SetChannelSendPermission(ctx context.Context, channelID, userID int64, allowed bool) error {
	channel := common.FormatID(channelID)
	user := common.FormatID(userID)

	var allow, deny int64
	if ch, err := p.session.State.Channel(channel); err == nil {
		allow, deny = memberOverwrite(ch, user)
	}
	allow, deny = withSendPermission(allow, deny, allowed)

	err := p.session.ChannelPermissionSet(channel, user, discordgo.PermissionOverwriteTypeMember, allow, deny, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to set send permission for %d in channel %d: %w", userID, channelID, err)
	}
	return nil
}

func memberOverwrite(ch *discordgo.Channel, userID string) (allow, deny int64) {
	for _, ow := range ch.PermissionOverwrites {
		if ow.Type == discordgo.PermissionOverwriteTypeMember && ow.ID == userID {
			return ow.Allow, ow.Deny
		}
	}
	return 0, 0
}

func withSendPermission(allow, deny int64, allowed bool) (int64, int64) {
	if allowed {
		return allow | discordgo.PermissionSendMessages, deny &^ discordgo.PermissionSendMessages
	}
	return allow &^ discordgo.PermissionSendMessages, deny | discordgo.PermissionSendMessages
}
