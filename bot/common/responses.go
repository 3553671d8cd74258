package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Reply sends a plain message to the channel a command came from
func Reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.WithFields(log.Fields{
			"channelID": channelID,
			"error":     err,
		}).Error("Failed to send reply")
	}
}

// ReplyWithEmbed sends an embed to the channel a command came from
func ReplyWithEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"channelID": channelID,
			"error":     err,
		}).Error("Failed to send embed reply")
	}
}

// ReplyWithError sends an error message
func ReplyWithError(s *discordgo.Session, channelID, message string) {
	Reply(s, channelID, "❌ "+message)
}

// ReplyWithSuccess sends a success message
func ReplyWithSuccess(s *discordgo.Session, channelID, message string) {
	Reply(s, channelID, "✅ "+message)
}
