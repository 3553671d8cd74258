package service

import (
	"context"
	"errors"
	"testing"

	"nerdbot/events"
	"nerdbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScoreService_GetScore_NewUserGetsDefaults(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewScoreService(store, testStartingCoins)

	coins, err := svc.GetScore(ctx, TestUser1ID, models.ClaimableKindCoin)
	require.NoError(t, err)
	assert.Equal(t, int64(testStartingCoins), coins)

	clams, err := svc.GetScore(ctx, TestUser1ID, models.ClaimableKindClam)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultClamsCaught, clams)

	assert.NotNil(t, store.score(TestUser1ID), "reading a score creates the record")
}

func TestScoreService_AddToScore(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()
	uow.ScoreRepo.On("Add", ctx, int64(TestUser1ID), models.ClaimableKindCoin, int64(15), int64(testStartingCoins)).Return(int64(25), nil)

	svc := NewScoreService(&MockUnitOfWorkFactory{UoW: uow}, testStartingCoins)

	total, err := svc.AddToScore(ctx, TestUser1ID, models.ClaimableKindCoin, 15)

	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Equal(t, 1, uow.Commits)

	published := uow.Published.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.ScoreChangedEvent{UserID: TestUser1ID, Kind: models.ClaimableKindCoin, Delta: 15, NewTotal: 25}, published[0])
	uow.AssertExpectations(t)
}

func TestScoreService_AddToScore_Validation(t *testing.T) {
	tests := []struct {
		name  string
		kind  models.ClaimableKind
		delta int64
	}{
		{name: "negative delta", kind: models.ClaimableKindCoin, delta: -1},
		{name: "unknown kind", kind: models.ClaimableKind("pearl"), delta: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := NewMockUnitOfWork()
			svc := NewScoreService(&MockUnitOfWorkFactory{UoW: uow}, testStartingCoins)

			_, err := svc.AddToScore(context.Background(), TestUser1ID, tt.kind, tt.delta)

			assert.ErrorIs(t, err, ErrInvalidArgument)
			uow.ScoreRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestScoreService_AddToScore_StorageFailure(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()
	uow.ScoreRepo.On("Add", ctx, int64(TestUser1ID), models.ClaimableKindClam, int64(1), int64(testStartingCoins)).Return(int64(0), errors.New("connection refused"))

	svc := NewScoreService(&MockUnitOfWorkFactory{UoW: uow}, testStartingCoins)

	_, err := svc.AddToScore(ctx, TestUser1ID, models.ClaimableKindClam, 1)

	assert.True(t, IsStorageError(err))
	assert.Empty(t, uow.Published.Events())
}

func TestScoreService_TopScores_RanksWithTieBreak(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewScoreService(store, testStartingCoins)

	_, err := svc.AddToScore(ctx, TestUser3ID, models.ClaimableKindClam, 4)
	require.NoError(t, err)
	_, err = svc.AddToScore(ctx, TestUser2ID, models.ClaimableKindClam, 4)
	require.NoError(t, err)
	_, err = svc.AddToScore(ctx, TestUser1ID, models.ClaimableKindClam, 1)
	require.NoError(t, err)

	entries, err := svc.TopScores(ctx, models.ClaimableKindClam, []int64{TestUser1ID, TestUser2ID, TestUser3ID, 444444}, 0)
	require.NoError(t, err)

	require.Len(t, entries, 3, "candidates without a record are skipped")
	assert.Equal(t, &models.ScoreboardEntry{Rank: 1, DiscordID: TestUser2ID, Score: 4}, entries[0])
	assert.Equal(t, &models.ScoreboardEntry{Rank: 2, DiscordID: TestUser3ID, Score: 4}, entries[1])
	assert.Equal(t, &models.ScoreboardEntry{Rank: 3, DiscordID: TestUser1ID, Score: 1}, entries[2])
}

func TestScoreService_TopScores_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewScoreService(store, testStartingCoins)

	for _, id := range []int64{TestUser1ID, TestUser2ID, TestUser3ID} {
		_, err := svc.AddToScore(ctx, id, models.ClaimableKindCoin, id/1000)
		require.NoError(t, err)
	}

	entries, err := svc.TopScores(ctx, models.ClaimableKindCoin, []int64{TestUser1ID, TestUser2ID, TestUser3ID}, 2)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, int64(TestUser3ID), entries[0].DiscordID)
	assert.Equal(t, int64(TestUser2ID), entries[1].DiscordID)
}

func TestScoreService_TopScores_NoCandidates(t *testing.T) {
	uow := NewMockUnitOfWork()
	svc := NewScoreService(&MockUnitOfWorkFactory{UoW: uow}, testStartingCoins)

	entries, err := svc.TopScores(context.Background(), models.ClaimableKindCoin, nil, 10)

	require.NoError(t, err)
	assert.Empty(t, entries)
	uow.ScoreRepo.AssertNotCalled(t, "Top", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
