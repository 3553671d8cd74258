package bot

import (
	"nerdbot/bot/common"
	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type handlerFunc func(*common.Command)

// router dispatches prefix commands to feature handlers
type router struct {
	prefix   string
	handlers map[string]handlerFunc
}

func newRouter(prefix string, groups ...map[string]func(*common.Command)) *router {
	r := &router{prefix: prefix, handlers: make(map[string]handlerFunc)}
	for _, group := range groups {
		for name, handler := range group {
			if _, exists := r.handlers[name]; exists {
				log.WithField("command", name).Warn("Duplicate command registration")
			}
			r.handlers[name] = handler
		}
	}
	return r
}

// dispatch runs the matching handler and reports whether the message was a
// known command. Unknown commands fall through as ordinary chat.
func (r *router) dispatch(s *discordgo.Session, m *discordgo.MessageCreate, guildID, channelID int64) bool {
	name, args, ok := common.ParseCommand(r.prefix, m.Content)
	if !ok {
		return false
	}
	handler, ok := r.handlers[name]
	if !ok {
		return false
	}

	authorID, err := common.ParseID(m.Author.ID)
	if err != nil {
		return true
	}

	handler(&common.Command{
		Session:   s,
		Message:   m,
		Name:      name,
		Args:      args,
		GuildID:   guildID,
		ChannelID: channelID,
		Author:    service.Member{UserID: authorID, DisplayName: authorName(m)},
	})
	return true
}

func authorName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return common.DisplayName(&discordgo.Member{User: m.Author})
}
