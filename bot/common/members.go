package common

import (
	"fmt"

	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
)

// memberPageSize is the largest page the members endpoint returns
const memberPageSize = 1000

// DisplayName returns the guild nickname, then the global name, then the username
func DisplayName(member *discordgo.Member) string {
	if member == nil {
		return "Unknown"
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return "Unknown"
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// ResolveMember looks up a guild member, preferring the state cache
func ResolveMember(s *discordgo.Session, guildID, userID string) (service.Member, error) {
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil {
			return service.Member{}, fmt.Errorf("member %s not found in guild %s: %w", userID, guildID, err)
		}
	}

	id, err := ParseID(member.User.ID)
	if err != nil {
		return service.Member{}, err
	}
	return service.Member{UserID: id, DisplayName: DisplayName(member)}, nil
}

// ListMembers pages through every member of a guild
func ListMembers(s *discordgo.Session, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of guild %s: %w", guildID, err)
		}
		all = append(all, page...)
		if len(page) < memberPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}
