package common

import (
	"github.com/bwmarrin/discordgo"
)

// SendableTextChannels returns the text channels canSend reports true for
func SendableTextChannels(channels []*discordgo.Channel, canSend func(channelID string) bool) []int64 {
	var ids []int64
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		if !canSend(ch.ID) {
			continue
		}
		id, err := ParseID(ch.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// MemberCanSend checks the computed channel permissions of a user from state
func MemberCanSend(s *discordgo.Session, userID string) func(channelID string) bool {
	return func(channelID string) bool {
		perms, err := s.State.UserChannelPermissions(userID, channelID)
		if err != nil {
			return false
		}
		return perms&discordgo.PermissionSendMessages != 0
	}
}

// HasChannelPermission reports whether userID holds perm in channelID.
// Administrators hold every permission.
func HasChannelPermission(s *discordgo.Session, userID, channelID string, perm int64) bool {
	perms, err := s.State.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false
	}
	return perms&perm == perm
}

// GuildChannels returns the channels of a guild, preferring the state cache
func GuildChannels(s *discordgo.Session, guildID string) ([]*discordgo.Channel, error) {
	if guild, err := s.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	return s.GuildChannels(guildID)
}
