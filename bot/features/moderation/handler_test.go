package moderation

import (
	"errors"
	"testing"

	"nerdbot/service"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestMuteReply(t *testing.T) {
	result := &service.ModerationResult{ChangedChannelIDs: []int64{1, 2}}

	assert.Equal(t, "<@42> has been sent to jail.", MuteReply(42, result))
}

func TestUnmuteReply(t *testing.T) {
	assert.Equal(t, "<@42> has been released from jail.", UnmuteReply(42, &service.ModerationResult{}))
}

func TestReply_ReportsFailedChannels(t *testing.T) {
	var failed *multierror.Error
	failed = multierror.Append(failed, errors.New("channel 1: forbidden"))

	result := &service.ModerationResult{ChangedChannelIDs: []int64{2}, Failed: failed.ErrorOrNil()}
	assert.Equal(t, "<@42> has been sent to jail. (1 channel could not be updated)", MuteReply(42, result))

	failed = multierror.Append(failed, errors.New("channel 3: forbidden"))
	result.Failed = failed.ErrorOrNil()
	assert.Equal(t, "<@42> has been released from jail. (2 channels could not be updated)", UnmuteReply(42, result))
}

func TestCommands_Aliases(t *testing.T) {
	commands := New(nil).Commands()

	for _, name := range []string{"bonk", "mute", "unbonk", "unmute"} {
		assert.Contains(t, commands, name)
	}
}
