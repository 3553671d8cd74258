package reactions

import (
	"context"
	"errors"
	"testing"

	"nerdbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGuildService struct {
	mock.Mock
}

func (m *mockGuildService) HandleJoin(ctx context.Context, guildID int64) (*models.Guild, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guild), args.Error(1)
}

func (m *mockGuildService) HandleLeave(ctx context.Context, guildID int64) error {
	return m.Called(ctx, guildID).Error(0)
}

func (m *mockGuildService) SyncGuilds(ctx context.Context, guildIDs []int64, latestChangelog int) ([]int64, error) {
	args := m.Called(ctx, guildIDs, latestChangelog)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *mockGuildService) RecordReactor(ctx context.Context, guildID, userID int64) (bool, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Bool(0), args.Error(1)
}

const testGuildID int64 = 4242

func TestReply_KnownEmoji(t *testing.T) {
	ctx := context.Background()
	guilds := new(mockGuildService)
	guilds.On("RecordReactor", ctx, testGuildID, int64(1)).Return(true, nil)

	link, ok := New(guilds, 6).Reply(ctx, testGuildID, 1, "sus")

	assert.True(t, ok)
	assert.Equal(t, "https://tenor.com/view/hmm-suspect-gif-22611582", link)
	guilds.AssertExpectations(t)
}

func TestReply_UnknownEmojiSkipsReactorCheck(t *testing.T) {
	guilds := new(mockGuildService)

	_, ok := New(guilds, 6).Reply(context.Background(), testGuildID, 1, "🦀")

	assert.False(t, ok)
	guilds.AssertNotCalled(t, "RecordReactor", mock.Anything, mock.Anything, mock.Anything)
}

func TestReply_SameReactorTwice(t *testing.T) {
	ctx := context.Background()
	guilds := new(mockGuildService)
	guilds.On("RecordReactor", ctx, testGuildID, int64(1)).Return(false, nil)

	_, ok := New(guilds, 6).Reply(ctx, testGuildID, 1, "👍")

	assert.False(t, ok)
}

func TestReply_StorageFailure(t *testing.T) {
	ctx := context.Background()
	guilds := new(mockGuildService)
	guilds.On("RecordReactor", ctx, testGuildID, int64(1)).Return(false, errors.New("connection refused"))

	_, ok := New(guilds, 6).Reply(ctx, testGuildID, 1, "👍")

	assert.False(t, ok)
}

func TestReply_RateLimitedPerGuild(t *testing.T) {
	ctx := context.Background()
	guilds := new(mockGuildService)
	guilds.On("RecordReactor", ctx, mock.Anything, mock.Anything).Return(true, nil)

	feature := New(guilds, 2)

	_, first := feature.Reply(ctx, testGuildID, 1, "sip")
	_, second := feature.Reply(ctx, testGuildID, 2, "sip")
	_, third := feature.Reply(ctx, testGuildID, 3, "sip")
	_, otherGuild := feature.Reply(ctx, testGuildID+1, 3, "sip")

	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, third, "burst is spent")
	assert.True(t, otherGuild, "limits are per guild")
}

func TestReply_ZeroDisablesLimit(t *testing.T) {
	ctx := context.Background()
	guilds := new(mockGuildService)
	guilds.On("RecordReactor", ctx, mock.Anything, mock.Anything).Return(true, nil)

	feature := New(guilds, 0)
	for i := int64(0); i < 20; i++ {
		_, ok := feature.Reply(ctx, testGuildID, i, "beans")
		assert.True(t, ok)
	}
}
