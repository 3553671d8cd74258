package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nerdbot/events"
	"nerdbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	TestGuildID   = 4242
	TestChannelID = 789012
	TestOtherChan = 789013
	TestUser1ID   = 111111
	TestUser2ID   = 222222
	TestUser3ID   = 333333
	TestModID     = 999999
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSpawnSettings() SpawnSettings {
	return SpawnSettings{
		Cooldown:  900 * time.Second,
		RollRange: 20,
		Sentinels: map[models.ClaimableKind]int{
			models.ClaimableKindCoin: 1,
			models.ClaimableKindClam: 2,
		},
	}
}

func seedIdle(store *memoryStore, kind models.ClaimableKind, lastCaughtAt time.Time) {
	store.seedClaimable(models.GuildClaimable{
		GuildID:      TestGuildID,
		Kind:         kind,
		LastCaughtAt: lastCaughtAt,
	})
}

func seedActive(store *memoryStore, kind models.ClaimableKind, messageID, channelID int64) {
	store.seedClaimable(models.GuildClaimable{
		GuildID:          TestGuildID,
		Kind:             kind,
		IsActive:         true,
		CurrentMessageID: &messageID,
		CurrentChannelID: &channelID,
		LastCaughtAt:     testNow.Add(-time.Hour),
	})
}

func TestSpawnService_FirstMessageOnlyStartsCooldown(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	notifier := newRecordingNotifier()
	roller := NewScriptedRoller(1)

	svc := NewSpawnService(store, notifier, NewClaimableLocks(), NewFixedClock(testNow), roller, testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, roller.Calls)
	assert.Empty(t, notifier.announced)

	for _, kind := range models.ClaimableKinds {
		state := store.claimable(TestGuildID, kind)
		require.NotNil(t, state, "kind %s", kind)
		assert.False(t, state.IsActive)
		assert.Equal(t, testNow, state.LastCaughtAt)
	}
}

func TestSpawnService_CooldownBoundary(t *testing.T) {
	tests := []struct {
		name      string
		elapsed   time.Duration
		wantSpawn bool
	}{
		{name: "one second short", elapsed: 899 * time.Second, wantSpawn: false},
		{name: "exactly elapsed", elapsed: 900 * time.Second, wantSpawn: true},
		{name: "past cooldown", elapsed: 901 * time.Second, wantSpawn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newMemoryStore()
			seedIdle(store, models.ClaimableKindCoin, testNow.Add(-tt.elapsed))
			seedActive(store, models.ClaimableKindClam, 1, TestOtherChan)

			roller := NewScriptedRoller(1)
			svc := NewSpawnService(store, newRecordingNotifier(), NewClaimableLocks(), NewFixedClock(testNow), roller, testSpawnSettings())

			result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)
			require.NoError(t, err)

			if !tt.wantSpawn {
				assert.Nil(t, result)
				assert.Zero(t, roller.Calls, "ineligible kinds must not be rolled")
				assert.False(t, store.claimable(TestGuildID, models.ClaimableKindCoin).IsActive)
				return
			}

			require.NotNil(t, result)
			assert.Equal(t, models.ClaimableKindCoin, result.Claimable.Kind)
			assert.Equal(t, int64(TestChannelID), result.Claimable.ChannelID)

			state := store.claimable(TestGuildID, models.ClaimableKindCoin)
			require.NotNil(t, state.Active())
			assert.Equal(t, result.Claimable.MessageID, state.Active().MessageID)
		})
	}
}

func TestSpawnService_CoinWinsWhenBothTrigger(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedIdle(store, models.ClaimableKindCoin, testNow.Add(-time.Hour))
	seedIdle(store, models.ClaimableKindClam, testNow.Add(-time.Hour))

	roller := NewScriptedRoller(7, 1, 2)
	svc := NewSpawnService(store, newRecordingNotifier(), NewClaimableLocks(), NewFixedClock(testNow), roller, testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.ClaimableKindCoin, result.Claimable.Kind)
	assert.Equal(t, 2, roller.Calls)
	assert.False(t, store.claimable(TestGuildID, models.ClaimableKindClam).IsActive)

	published := store.events()
	require.Len(t, published, 1)
	spawned, ok := published[0].(events.ClaimableSpawnedEvent)
	require.True(t, ok)
	assert.Equal(t, models.ClaimableKindCoin, spawned.Kind)
	assert.Equal(t, result.Claimable.MessageID, spawned.MessageID)
}

func TestSpawnService_ClamSpawnsWhenCoinMisses(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedIdle(store, models.ClaimableKindCoin, testNow.Add(-time.Hour))
	seedIdle(store, models.ClaimableKindClam, testNow.Add(-time.Hour))

	roller := NewScriptedRoller(7, 5, 2)
	svc := NewSpawnService(store, newRecordingNotifier(), NewClaimableLocks(), NewFixedClock(testNow), roller, testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.ClaimableKindClam, result.Claimable.Kind)
	assert.False(t, store.claimable(TestGuildID, models.ClaimableKindCoin).IsActive)
	assert.True(t, store.claimable(TestGuildID, models.ClaimableKindClam).IsActive)
}

func TestSpawnService_LiveCollectibleIsNotReplaced(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedActive(store, models.ClaimableKindCoin, 555, TestOtherChan)
	seedIdle(store, models.ClaimableKindClam, testNow.Add(-time.Hour))

	roller := NewScriptedRoller(1)
	notifier := newRecordingNotifier()
	svc := NewSpawnService(store, notifier, NewClaimableLocks(), NewFixedClock(testNow), roller, testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1, roller.Calls, "only the idle clam is rolled")
	assert.Empty(t, notifier.announced)

	coin := store.claimable(TestGuildID, models.ClaimableKindCoin).Active()
	require.NotNil(t, coin)
	assert.Equal(t, int64(555), coin.MessageID)
	assert.Equal(t, int64(TestOtherChan), coin.ChannelID)
}

func TestSpawnService_AnnounceFailureLeavesStateIdle(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedIdle(store, models.ClaimableKindCoin, testNow.Add(-time.Hour))
	seedIdle(store, models.ClaimableKindClam, testNow.Add(-time.Hour))

	notifier := newRecordingNotifier()
	notifier.announceErr = errors.New("missing access")
	svc := NewSpawnService(store, notifier, NewClaimableLocks(), NewFixedClock(testNow), NewScriptedRoller(1), testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, store.claimable(TestGuildID, models.ClaimableKindCoin).IsActive)
	assert.Empty(t, store.events())
}

func TestSpawnService_LostActivationRetractsAnnouncement(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()
	notifier := new(MockNotifier)

	idle := &models.GuildClaimable{GuildID: TestGuildID, Kind: models.ClaimableKindCoin, LastCaughtAt: testNow.Add(-time.Hour)}
	clamLive := &models.GuildClaimable{GuildID: TestGuildID, Kind: models.ClaimableKindClam, IsActive: true}

	uow.GuildRepo.On("EnsureExists", ctx, int64(TestGuildID)).Return(false, nil)
	uow.ClaimableRepo.On("Initialize", ctx, int64(TestGuildID), mock.Anything, testNow).Return(false, nil)
	uow.ClaimableRepo.On("Get", ctx, int64(TestGuildID), models.ClaimableKindCoin).Return(idle, nil)
	uow.ClaimableRepo.On("Get", ctx, int64(TestGuildID), models.ClaimableKindClam).Return(clamLive, nil)
	uow.ClaimableRepo.On("Activate", ctx, int64(TestGuildID), models.ClaimableKindCoin, int64(777), int64(TestChannelID)).Return(false, nil)

	expected := models.ActiveClaimable{GuildID: TestGuildID, Kind: models.ClaimableKindCoin, MessageID: 777, ChannelID: TestChannelID}
	notifier.On("AnnounceClaimable", ctx, int64(TestChannelID), models.ClaimableKindCoin).Return(int64(777), nil)
	notifier.On("RetractClaimable", ctx, expected).Return(nil)

	svc := NewSpawnService(&MockUnitOfWorkFactory{UoW: uow}, notifier, NewClaimableLocks(), NewFixedClock(testNow), NewScriptedRoller(1), testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, uow.Published.Events())
	uow.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSpawnService_StorageFailureIsReported(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()
	uow.GuildRepo.On("EnsureExists", ctx, int64(TestGuildID)).Return(false, errors.New("connection reset"))

	svc := NewSpawnService(&MockUnitOfWorkFactory{UoW: uow}, new(MockNotifier), NewClaimableLocks(), NewFixedClock(testNow), NewScriptedRoller(1), testSpawnSettings())

	result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)

	assert.Nil(t, result)
	assert.True(t, IsStorageError(err))
	assert.Equal(t, 0, uow.Commits)
}

func TestSpawnService_ConcurrentMessagesSpawnOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	seedIdle(store, models.ClaimableKindCoin, testNow.Add(-time.Hour))
	seedIdle(store, models.ClaimableKindClam, testNow.Add(-time.Hour))

	notifier := newRecordingNotifier()
	svc := NewSpawnService(store, notifier, NewClaimableLocks(), NewFixedClock(testNow), NewScriptedRoller(1), testSpawnSettings())

	const messages = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	var spawned []*SpawnResult

	for i := 0; i < messages; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.HandleMessage(ctx, TestGuildID, TestChannelID)
			if !assert.NoError(t, err) || result == nil {
				return
			}
			mu.Lock()
			spawned = append(spawned, result)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, spawned, 1)
	require.Len(t, notifier.announced, 1)
	assert.Empty(t, notifier.retracted)

	coin := store.claimable(TestGuildID, models.ClaimableKindCoin).Active()
	require.NotNil(t, coin)
	assert.Equal(t, notifier.announced[0], coin.MessageID)
	assert.Equal(t, spawned[0].Claimable.MessageID, coin.MessageID)
	assert.False(t, store.claimable(TestGuildID, models.ClaimableKindClam).IsActive)
}
