package moderation

import (
	"context"
	"errors"
	"fmt"

	"nerdbot/bot/common"
	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// RequiredPermission is what a moderator needs to use the jail commands
const RequiredPermission int64 = discordgo.PermissionManageRoles

// target validates the moderator and resolves the member named in the first argument
func (f *Feature) target(c *common.Command) (service.Member, bool) {
	if !common.HasChannelPermission(c.Session, c.Message.Author.ID, c.Message.ChannelID, RequiredPermission) {
		common.Reply(c.Session, c.ReplyChannel(), "You don't have permission for that!")
		return service.Member{}, false
	}

	if len(c.Args) == 0 {
		common.Reply(c.Session, c.ReplyChannel(), "No input given.")
		return service.Member{}, false
	}

	userID, ok := common.ParseUserArg(c.Args[0])
	if !ok {
		common.Reply(c.Session, c.ReplyChannel(), fmt.Sprintf("%s is not a valid input.", c.Args[0]))
		return service.Member{}, false
	}

	member, err := common.ResolveMember(c.Session, c.Message.GuildID, common.FormatID(userID))
	if err != nil {
		common.Reply(c.Session, c.ReplyChannel(), fmt.Sprintf("%s is not a valid input.", c.Args[0]))
		return service.Member{}, false
	}
	return member, true
}

func (f *Feature) handleMute(c *common.Command) {
	ctx := context.Background()

	member, ok := f.target(c)
	if !ok {
		return
	}

	channels, err := common.GuildChannels(c.Session, c.Message.GuildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"error":   err,
		}).Error("Failed to list guild channels")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Unable to read this server's channels.")
		return
	}
	sendable := common.SendableTextChannels(channels, common.MemberCanSend(c.Session, common.FormatID(member.UserID)))

	result, err := f.moderationService.Mute(ctx, c.GuildID, c.Author.UserID, member, sendable)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyMuted) {
			common.Reply(c.Session, c.ReplyChannel(), fmt.Sprintf("%s is already in jail.", common.Mention(member.UserID)))
			return
		}
		if errors.Is(err, service.ErrNoChannelsChanged) {
			log.WithFields(log.Fields{
				"guildID": c.GuildID,
				"userID":  member.UserID,
				"error":   err,
			}).Warn("Mute changed no channels")
			common.Reply(c.Session, c.ReplyChannel(), "I couldn't change that user's permissions in any channel.")
			return
		}
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"userID":  member.UserID,
			"error":   err,
		}).Error("Mute failed")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Something went wrong. Please try again.")
		return
	}

	common.Reply(c.Session, c.ReplyChannel(), MuteReply(member.UserID, result))
}

func (f *Feature) handleUnmute(c *common.Command) {
	ctx := context.Background()

	member, ok := f.target(c)
	if !ok {
		return
	}

	result, err := f.moderationService.Unmute(ctx, c.GuildID, member)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			common.Reply(c.Session, c.ReplyChannel(), "Looks like I haven't changed that user's permissions at all. No changes needed!")
			return
		}
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"userID":  member.UserID,
			"error":   err,
		}).Error("Unmute failed")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Something went wrong. Please try again.")
		return
	}

	common.Reply(c.Session, c.ReplyChannel(), UnmuteReply(member.UserID, result))
}

// MuteReply is the chat response after a mute, noting channels that could not be changed
func MuteReply(userID int64, result *service.ModerationResult) string {
	return common.Mention(userID) + " has been sent to jail." + failureNote(result)
}

// UnmuteReply is the chat response after an unmute
func UnmuteReply(userID int64, result *service.ModerationResult) string {
	return common.Mention(userID) + " has been released from jail." + failureNote(result)
}

func failureNote(result *service.ModerationResult) string {
	if result == nil || result.Failed == nil {
		return ""
	}
	var me interface{ WrappedErrors() []error }
	count := 1
	if errors.As(result.Failed, &me) {
		count = len(me.WrappedErrors())
	}
	if count == 1 {
		return " (1 channel could not be updated)"
	}
	return fmt.Sprintf(" (%d channels could not be updated)", count)
}
