package service

import (
	"context"
	"sync"
	"time"

	"nerdbot/events"
	"nerdbot/models"

	"github.com/stretchr/testify/mock"
)

// MockGuildRepository is a mock implementation of GuildRepository
type MockGuildRepository struct {
	mock.Mock
}

func (m *MockGuildRepository) GetByID(ctx context.Context, guildID int64) (*models.Guild, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guild), args.Error(1)
}

func (m *MockGuildRepository) Create(ctx context.Context, guildID int64) (*models.Guild, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Guild), args.Error(1)
}

func (m *MockGuildRepository) EnsureExists(ctx context.Context, guildID int64) (bool, error) {
	args := m.Called(ctx, guildID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGuildRepository) SetActive(ctx context.Context, guildID int64, active bool) error {
	args := m.Called(ctx, guildID, active)
	return args.Error(0)
}

func (m *MockGuildRepository) SetChangelogVersion(ctx context.Context, guildID int64, version int) error {
	args := m.Called(ctx, guildID, version)
	return args.Error(0)
}

func (m *MockGuildRepository) SetLastReactor(ctx context.Context, guildID int64, userID int64) error {
	args := m.Called(ctx, guildID, userID)
	return args.Error(0)
}

func (m *MockGuildRepository) GetAll(ctx context.Context) ([]*models.Guild, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Guild), args.Error(1)
}

// MockClaimableRepository is a mock implementation of ClaimableRepository
type MockClaimableRepository struct {
	mock.Mock
}

func (m *MockClaimableRepository) Get(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	args := m.Called(ctx, guildID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildClaimable), args.Error(1)
}

func (m *MockClaimableRepository) GetForUpdate(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	args := m.Called(ctx, guildID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuildClaimable), args.Error(1)
}

func (m *MockClaimableRepository) GetActive(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.ActiveClaimable, error) {
	args := m.Called(ctx, guildID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActiveClaimable), args.Error(1)
}

func (m *MockClaimableRepository) Initialize(ctx context.Context, guildID int64, kind models.ClaimableKind, lastCaughtAt time.Time) (bool, error) {
	args := m.Called(ctx, guildID, kind, lastCaughtAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimableRepository) Activate(ctx context.Context, guildID int64, kind models.ClaimableKind, messageID, channelID int64) (bool, error) {
	args := m.Called(ctx, guildID, kind, messageID, channelID)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimableRepository) Deactivate(ctx context.Context, guildID int64, kind models.ClaimableKind, claimedAt time.Time) (bool, error) {
	args := m.Called(ctx, guildID, kind, claimedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockClaimableRepository) TimeSinceLastCaught(ctx context.Context, guildID int64, kind models.ClaimableKind, now time.Time) (time.Duration, error) {
	args := m.Called(ctx, guildID, kind, now)
	return args.Get(0).(time.Duration), args.Error(1)
}

// MockUserScoreRepository is a mock implementation of UserScoreRepository
type MockUserScoreRepository struct {
	mock.Mock
}

func (m *MockUserScoreRepository) GetOrCreate(ctx context.Context, discordID int64, startingCoins int64) (*models.UserScore, error) {
	args := m.Called(ctx, discordID, startingCoins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserScore), args.Error(1)
}

func (m *MockUserScoreRepository) Add(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64, startingCoins int64) (int64, error) {
	args := m.Called(ctx, discordID, kind, delta, startingCoins)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserScoreRepository) Top(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.UserScore, error) {
	args := m.Called(ctx, kind, candidateIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserScore), args.Error(1)
}

// MockModerationRepository is a mock implementation of ModerationRepository
type MockModerationRepository struct {
	mock.Mock
}

func (m *MockModerationRepository) Get(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (*models.ModerationRecord, error) {
	args := m.Called(ctx, discordID, guildID, modType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModerationRecord), args.Error(1)
}

func (m *MockModerationRepository) Create(ctx context.Context, record *models.ModerationRecord) (bool, error) {
	args := m.Called(ctx, record)
	return args.Bool(0), args.Error(1)
}

func (m *MockModerationRepository) SetAffectedChannels(ctx context.Context, discordID, guildID int64, modType models.ModerationType, channelIDs []int64) error {
	args := m.Called(ctx, discordID, guildID, modType, channelIDs)
	return args.Error(0)
}

func (m *MockModerationRepository) Delete(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (bool, error) {
	args := m.Called(ctx, discordID, guildID, modType)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) AnnounceClaimable(ctx context.Context, channelID int64, kind models.ClaimableKind) (int64, error) {
	args := m.Called(ctx, channelID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotifier) MarkClaimed(ctx context.Context, claimable models.ActiveClaimable, claimant Member, reward int64) error {
	args := m.Called(ctx, claimable, claimant, reward)
	return args.Error(0)
}

func (m *MockNotifier) RetractClaimable(ctx context.Context, claimable models.ActiveClaimable) error {
	args := m.Called(ctx, claimable)
	return args.Error(0)
}

// MockPermissionSetter is a mock implementation of PermissionSetter
type MockPermissionSetter struct {
	mock.Mock
}

func (m *MockPermissionSetter) SetChannelSendPermission(ctx context.Context, channelID, userID int64, allowed bool) error {
	args := m.Called(ctx, channelID, userID, allowed)
	return args.Error(0)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of everything published so far
func (m *MockEventPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// MockUnitOfWork hands out mock repositories. Events published inside a unit of
// work only reach Published once it commits.
type MockUnitOfWork struct {
	GuildRepo      *MockGuildRepository
	ClaimableRepo  *MockClaimableRepository
	ScoreRepo      *MockUserScoreRepository
	ModerationRepo *MockModerationRepository
	Published      *MockEventPublisher

	BeginErr  error
	CommitErr error

	mu        sync.Mutex
	pending   []events.Event
	committed bool
	Commits   int
	Rollbacks int
}

// NewMockUnitOfWork creates a unit of work with fresh mock repositories
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		GuildRepo:      new(MockGuildRepository),
		ClaimableRepo:  new(MockClaimableRepository),
		ScoreRepo:      new(MockUserScoreRepository),
		ModerationRepo: new(MockModerationRepository),
		Published:      new(MockEventPublisher),
	}
}

func (u *MockUnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = nil
	u.committed = false
	return u.BeginErr
}

func (u *MockUnitOfWork) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.CommitErr != nil {
		return u.CommitErr
	}
	for _, e := range u.pending {
		u.Published.Publish(e)
	}
	u.pending = nil
	u.committed = true
	u.Commits++
	return nil
}

func (u *MockUnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.committed {
		u.pending = nil
		u.Rollbacks++
	}
	return nil
}

func (u *MockUnitOfWork) GuildRepository() GuildRepository           { return u.GuildRepo }
func (u *MockUnitOfWork) ClaimableRepository() ClaimableRepository   { return u.ClaimableRepo }
func (u *MockUnitOfWork) UserScoreRepository() UserScoreRepository   { return u.ScoreRepo }
func (u *MockUnitOfWork) ModerationRepository() ModerationRepository { return u.ModerationRepo }
func (u *MockUnitOfWork) EventBus() EventPublisher                   { return (*mockTxPublisher)(u) }

// AssertExpectations asserts expectations on every mock repository
func (u *MockUnitOfWork) AssertExpectations(t mock.TestingT) {
	u.GuildRepo.AssertExpectations(t)
	u.ClaimableRepo.AssertExpectations(t)
	u.ScoreRepo.AssertExpectations(t)
	u.ModerationRepo.AssertExpectations(t)
}

type mockTxPublisher MockUnitOfWork

func (p *mockTxPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, event)
}

// MockUnitOfWorkFactory always returns the same MockUnitOfWork
type MockUnitOfWorkFactory struct {
	UoW *MockUnitOfWork
}

func (f *MockUnitOfWorkFactory) Create() UnitOfWork {
	return f.UoW
}

// FixedClock is a Clock that returns a settable instant
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock stopped at now
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ScriptedRoller returns queued values in order, then falls back to Default
type ScriptedRoller struct {
	mu      sync.Mutex
	values  []int
	Default int
	Calls   int
}

// NewScriptedRoller creates a roller that yields values before falling back to def
func NewScriptedRoller(def int, values ...int) *ScriptedRoller {
	return &ScriptedRoller{values: values, Default: def}
}

func (r *ScriptedRoller) Roll(min, max int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if len(r.values) == 0 {
		return r.Default
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}
