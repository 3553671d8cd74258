package moderation

import (
	"nerdbot/bot/common"
	"nerdbot/service"
)

// Feature handles the jail commands
type Feature struct {
	moderationService service.ModerationService
}

func New(moderationService service.ModerationService) *Feature {
	return &Feature{moderationService: moderationService}
}

// Commands maps command names and their aliases to handlers
func (f *Feature) Commands() map[string]func(*common.Command) {
	return map[string]func(*common.Command){
		"bonk":   f.handleMute,
		"mute":   f.handleMute,
		"unbonk": f.handleUnmute,
		"unmute": f.handleUnmute,
	}
}
