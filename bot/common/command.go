package common

import (
	"regexp"
	"strconv"
	"strings"

	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
)

// Command is a parsed prefix command from a guild text channel. Author is
// resolved before a handler sees it.
type Command struct {
	Session   *discordgo.Session
	Message   *discordgo.MessageCreate
	Name      string
	Args      []string
	GuildID   int64
	ChannelID int64
	Author    service.Member
}

// ReplyChannel is the string channel ID replies go to
func (c *Command) ReplyChannel() string {
	return c.Message.ChannelID
}

// ParseCommand splits "<prefix>name arg1 arg2" and lower-cases the name.
// It reports false when content is not a command.
func ParseCommand(prefix, content string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}

	return strings.ToLower(fields[0]), fields[1:], true
}

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

// ParseUserArg accepts a mention or a raw numeric ID
func ParseUserArg(arg string) (int64, bool) {
	if m := mentionPattern.FindStringSubmatch(arg); m != nil {
		arg = m[1]
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
