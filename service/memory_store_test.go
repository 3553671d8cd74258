package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"nerdbot/events"
	"nerdbot/models"
)

type claimableKey struct {
	guildID int64
	kind    models.ClaimableKind
}

// memoryStore is an in-memory stand-in for the database. Writes made through a
// memoryUnitOfWork are buffered and applied atomically on Commit.
type memoryStore struct {
	mu         sync.Mutex
	guilds     map[int64]*models.Guild
	claimables map[claimableKey]*models.GuildClaimable
	scores     map[int64]*models.UserScore
	published  []events.Event
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		guilds:     make(map[int64]*models.Guild),
		claimables: make(map[claimableKey]*models.GuildClaimable),
		scores:     make(map[int64]*models.UserScore),
	}
}

func (s *memoryStore) Create() UnitOfWork {
	return &memoryUnitOfWork{store: s}
}

func (s *memoryStore) claimable(guildID int64, kind models.ClaimableKind) *models.GuildClaimable {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claimables[claimableKey{guildID, kind}]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (s *memoryStore) score(discordID int64) *models.UserScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.scores[discordID]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (s *memoryStore) events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, len(s.published))
	copy(out, s.published)
	return out
}

func (s *memoryStore) seedClaimable(c models.GuildClaimable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guilds[c.GuildID]; !ok {
		s.guilds[c.GuildID] = &models.Guild{GuildID: c.GuildID, Active: true}
	}
	s.claimables[claimableKey{c.GuildID, c.Kind}] = &c
}

type memoryUnitOfWork struct {
	store   *memoryStore
	writes  []func()
	pending []events.Event
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *memoryUnitOfWork) Commit() error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, w := range u.writes {
		w()
	}
	u.store.published = append(u.store.published, u.pending...)
	u.writes, u.pending = nil, nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	u.writes, u.pending = nil, nil
	return nil
}

func (u *memoryUnitOfWork) GuildRepository() GuildRepository           { return memoryGuilds{u} }
func (u *memoryUnitOfWork) ClaimableRepository() ClaimableRepository   { return memoryClaimables{u} }
func (u *memoryUnitOfWork) UserScoreRepository() UserScoreRepository   { return memoryScores{u} }
func (u *memoryUnitOfWork) ModerationRepository() ModerationRepository { return nil }
func (u *memoryUnitOfWork) EventBus() EventPublisher                   { return memoryPublisher{u} }

type memoryPublisher struct{ u *memoryUnitOfWork }

func (p memoryPublisher) Publish(e events.Event) { p.u.pending = append(p.u.pending, e) }

type memoryGuilds struct{ u *memoryUnitOfWork }

func (r memoryGuilds) GetByID(ctx context.Context, guildID int64) (*models.Guild, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	g, ok := r.u.store.guilds[guildID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (r memoryGuilds) Create(ctx context.Context, guildID int64) (*models.Guild, error) {
	g := &models.Guild{GuildID: guildID, Active: true}
	r.u.writes = append(r.u.writes, func() { r.u.store.guilds[guildID] = g })
	cp := *g
	return &cp, nil
}

func (r memoryGuilds) EnsureExists(ctx context.Context, guildID int64) (bool, error) {
	existing, _ := r.GetByID(ctx, guildID)
	if existing != nil {
		return false, nil
	}
	_, err := r.Create(ctx, guildID)
	return true, err
}

func (r memoryGuilds) SetActive(ctx context.Context, guildID int64, active bool) error {
	r.u.writes = append(r.u.writes, func() { r.u.store.guilds[guildID].Active = active })
	return nil
}

func (r memoryGuilds) SetChangelogVersion(ctx context.Context, guildID int64, version int) error {
	r.u.writes = append(r.u.writes, func() { r.u.store.guilds[guildID].ChangelogVersion = version })
	return nil
}

func (r memoryGuilds) SetLastReactor(ctx context.Context, guildID int64, userID int64) error {
	r.u.writes = append(r.u.writes, func() { r.u.store.guilds[guildID].LastReactorID = &userID })
	return nil
}

func (r memoryGuilds) GetAll(ctx context.Context) ([]*models.Guild, error) {
	r.u.store.mu.Lock()
	defer r.u.store.mu.Unlock()
	out := make([]*models.Guild, 0, len(r.u.store.guilds))
	for _, g := range r.u.store.guilds {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

type memoryClaimables struct{ u *memoryUnitOfWork }

func (r memoryClaimables) Get(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	return r.u.store.claimable(guildID, kind), nil
}

func (r memoryClaimables) GetForUpdate(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	return r.u.store.claimable(guildID, kind), nil
}

func (r memoryClaimables) GetActive(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.ActiveClaimable, error) {
	return r.u.store.claimable(guildID, kind).Active(), nil
}

func (r memoryClaimables) Initialize(ctx context.Context, guildID int64, kind models.ClaimableKind, lastCaughtAt time.Time) (bool, error) {
	if r.u.store.claimable(guildID, kind) != nil {
		return false, nil
	}
	r.u.writes = append(r.u.writes, func() {
		key := claimableKey{guildID, kind}
		if _, ok := r.u.store.claimables[key]; ok {
			return
		}
		r.u.store.claimables[key] = &models.GuildClaimable{GuildID: guildID, Kind: kind, LastCaughtAt: lastCaughtAt}
	})
	return true, nil
}

// Activate and Deactivate check committed state, so two units of work that
// overlap without the service lock can both succeed
func (r memoryClaimables) Activate(ctx context.Context, guildID int64, kind models.ClaimableKind, messageID, channelID int64) (bool, error) {
	current := r.u.store.claimable(guildID, kind)
	if current == nil || current.IsActive {
		return false, nil
	}
	r.u.writes = append(r.u.writes, func() {
		c := r.u.store.claimables[claimableKey{guildID, kind}]
		c.IsActive = true
		c.CurrentMessageID = &messageID
		c.CurrentChannelID = &channelID
	})
	return true, nil
}

func (r memoryClaimables) Deactivate(ctx context.Context, guildID int64, kind models.ClaimableKind, claimedAt time.Time) (bool, error) {
	current := r.u.store.claimable(guildID, kind)
	if current == nil || !current.IsActive {
		return false, nil
	}
	r.u.writes = append(r.u.writes, func() {
		c := r.u.store.claimables[claimableKey{guildID, kind}]
		c.IsActive = false
		c.CurrentMessageID = nil
		c.CurrentChannelID = nil
		if claimedAt.After(c.LastCaughtAt) {
			c.LastCaughtAt = claimedAt
		}
	})
	return true, nil
}

func (r memoryClaimables) TimeSinceLastCaught(ctx context.Context, guildID int64, kind models.ClaimableKind, now time.Time) (time.Duration, error) {
	c := r.u.store.claimable(guildID, kind)
	if c == nil {
		return 0, nil
	}
	return now.Sub(c.LastCaughtAt), nil
}

type memoryScores struct{ u *memoryUnitOfWork }

func (r memoryScores) GetOrCreate(ctx context.Context, discordID int64, startingCoins int64) (*models.UserScore, error) {
	if s := r.u.store.score(discordID); s != nil {
		return s, nil
	}
	fresh := &models.UserScore{DiscordID: discordID, CoinsCaught: startingCoins}
	r.u.writes = append(r.u.writes, func() {
		if _, ok := r.u.store.scores[discordID]; !ok {
			cp := *fresh
			r.u.store.scores[discordID] = &cp
		}
	})
	return fresh, nil
}

func (r memoryScores) Add(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64, startingCoins int64) (int64, error) {
	current := r.u.store.score(discordID)
	if current == nil {
		current = &models.UserScore{DiscordID: discordID, CoinsCaught: startingCoins}
	}
	r.u.writes = append(r.u.writes, func() {
		s, ok := r.u.store.scores[discordID]
		if !ok {
			s = &models.UserScore{DiscordID: discordID, CoinsCaught: startingCoins}
			r.u.store.scores[discordID] = s
		}
		if kind == models.ClaimableKindCoin {
			s.CoinsCaught += delta
		} else {
			s.ClamsCaught += delta
		}
	})
	return current.For(kind) + delta, nil
}

func (r memoryScores) Top(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.UserScore, error) {
	var out []*models.UserScore
	for _, id := range candidateIDs {
		if s := r.u.store.score(id); s != nil {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].For(kind) != out[j].For(kind) {
			return out[i].For(kind) > out[j].For(kind)
		}
		return out[i].DiscordID < out[j].DiscordID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingNotifier hands out increasing message IDs and records every call
type recordingNotifier struct {
	mu          sync.Mutex
	nextID      int64
	announced   []int64
	claimed     []models.ActiveClaimable
	retracted   []models.ActiveClaimable
	announceErr error
	markErr     error

	// onMark runs at the start of MarkClaimed, outside the notifier's mutex
	onMark func()
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{nextID: 1000}
}

func (n *recordingNotifier) AnnounceClaimable(ctx context.Context, channelID int64, kind models.ClaimableKind) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.announceErr != nil {
		return 0, n.announceErr
	}
	n.nextID++
	n.announced = append(n.announced, n.nextID)
	return n.nextID, nil
}

func (n *recordingNotifier) MarkClaimed(ctx context.Context, claimable models.ActiveClaimable, claimant Member, reward int64) error {
	if n.onMark != nil {
		n.onMark()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.claimed = append(n.claimed, claimable)
	return n.markErr
}

func (n *recordingNotifier) RetractClaimable(ctx context.Context, claimable models.ActiveClaimable) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.retracted = append(n.retracted, claimable)
	return nil
}
