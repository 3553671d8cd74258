package service

import (
	"context"
	"fmt"
	"time"

	"nerdbot/config"
	"nerdbot/events"
	"nerdbot/models"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

// initializedGuildCacheSize bounds how many guild IDs are remembered as having
// their claimable rows in place
const initializedGuildCacheSize = 4096

// SpawnSettings tunes when collectibles appear
type SpawnSettings struct {
	Cooldown  time.Duration
	RollRange int
	Sentinels map[models.ClaimableKind]int
}

// SpawnSettingsFromConfig builds spawn settings from the loaded configuration
func SpawnSettingsFromConfig(cfg *config.Config) SpawnSettings {
	return SpawnSettings{
		Cooldown:  cfg.SpawnCooldown,
		RollRange: cfg.SpawnRollRange,
		Sentinels: map[models.ClaimableKind]int{
			models.ClaimableKindCoin: cfg.CoinSpawnSentinel,
			models.ClaimableKindClam: cfg.ClamSpawnSentinel,
		},
	}
}

type spawnService struct {
	uowFactory  UnitOfWorkFactory
	notifier    Notifier
	locks       *ClaimableLocks
	clock       Clock
	roller      Roller
	settings    SpawnSettings
	initialized *lru.Cache
}

// NewSpawnService creates a new spawn service
func NewSpawnService(uowFactory UnitOfWorkFactory, notifier Notifier, locks *ClaimableLocks, clock Clock, roller Roller, settings SpawnSettings) SpawnService {
	// lru.New only fails for a non-positive size
	cache, _ := lru.New(initializedGuildCacheSize)

	return &spawnService{
		uowFactory:  uowFactory,
		notifier:    notifier,
		locks:       locks,
		clock:       clock,
		roller:      roller,
		settings:    settings,
		initialized: cache,
	}
}

// HandleMessage runs the spawn check for a single non-bot guild message
func (s *spawnService) HandleMessage(ctx context.Context, guildID, channelID int64) (*SpawnResult, error) {
	now := s.clock.Now()

	fresh, err := s.ensureInitialized(ctx, guildID, now)
	if err != nil {
		return nil, err
	}
	if fresh {
		// The first message a guild ever sends only starts the cooldown
		log.WithField("guildID", guildID).Debug("Initialized claimable state for guild")
		return nil, nil
	}

	kind, err := s.pickKind(ctx, guildID, now)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return nil, nil
	}

	return s.spawn(ctx, guildID, channelID, kind)
}

// ensureInitialized creates missing claimable rows and reports whether this
// call created any of them
func (s *spawnService) ensureInitialized(ctx context.Context, guildID int64, now time.Time) (bool, error) {
	if s.initialized.Contains(guildID) {
		return false, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, storageErr("begin spawn init", err)
	}
	defer uow.Rollback()

	if _, err := uow.GuildRepository().EnsureExists(ctx, guildID); err != nil {
		return false, storageErr("ensure guild", err)
	}

	created := false
	for _, kind := range models.ClaimableKinds {
		ok, err := uow.ClaimableRepository().Initialize(ctx, guildID, kind, now)
		if err != nil {
			return false, storageErr("initialize claimable", err)
		}
		created = created || ok
	}

	if err := uow.Commit(); err != nil {
		return false, storageErr("commit spawn init", err)
	}

	s.initialized.Add(guildID, struct{}{})
	return created, nil
}

// pickKind rolls every eligible kind and returns the first that triggers.
// Rolls for later kinds are discarded when an earlier one wins.
func (s *spawnService) pickKind(ctx context.Context, guildID int64, now time.Time) (models.ClaimableKind, error) {
	states, err := s.loadStates(ctx, guildID)
	if err != nil {
		return "", err
	}

	var chosen models.ClaimableKind
	for _, kind := range models.ClaimableKinds {
		if !s.eligible(states[kind], now) {
			continue
		}
		roll := s.roller.Roll(1, s.settings.RollRange)
		if roll == s.settings.Sentinels[kind] && chosen == "" {
			chosen = kind
		}
	}
	return chosen, nil
}

func (s *spawnService) loadStates(ctx context.Context, guildID int64) (map[models.ClaimableKind]*models.GuildClaimable, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin spawn check", err)
	}
	defer uow.Rollback()

	states := make(map[models.ClaimableKind]*models.GuildClaimable, len(models.ClaimableKinds))
	for _, kind := range models.ClaimableKinds {
		state, err := uow.ClaimableRepository().Get(ctx, guildID, kind)
		if err != nil {
			return nil, storageErr("load claimable", err)
		}
		states[kind] = state
	}

	if err := uow.Commit(); err != nil {
		return nil, storageErr("commit spawn check", err)
	}
	return states, nil
}

// eligible reports whether kind may spawn: cooldown elapsed and nothing live
func (s *spawnService) eligible(state *models.GuildClaimable, now time.Time) bool {
	if state == nil || state.IsActive {
		return false
	}
	return now.Sub(state.LastCaughtAt) >= s.settings.Cooldown
}

// spawn announces and activates a collectible while holding its (guild, kind) lock
func (s *spawnService) spawn(ctx context.Context, guildID, channelID int64, kind models.ClaimableKind) (*SpawnResult, error) {
	unlock := s.locks.lock(guildID, kind)
	defer unlock()

	// Another message may have spawned or claimed while we rolled
	states, err := s.loadStates(ctx, guildID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !s.eligible(states[kind], now) {
		return nil, nil
	}

	messageID, err := s.notifier.AnnounceClaimable(ctx, channelID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to announce %s: %w", kind, err)
	}

	claimable := models.ActiveClaimable{
		GuildID:   guildID,
		Kind:      kind,
		MessageID: messageID,
		ChannelID: channelID,
	}

	activated, err := s.activate(ctx, claimable)
	if err != nil || !activated {
		if retractErr := s.notifier.RetractClaimable(ctx, claimable); retractErr != nil {
			log.WithFields(log.Fields{
				"guildID":   guildID,
				"kind":      kind,
				"messageID": messageID,
				"error":     retractErr,
			}).Warn("Failed to retract orphaned announcement")
		}
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"guildID": guildID,
			"kind":    kind,
		}).Info("Spawn lost the race to another spawn")
		return nil, nil
	}

	log.WithFields(log.Fields{
		"guildID":   guildID,
		"channelID": channelID,
		"kind":      kind,
		"messageID": messageID,
	}).Info("Spawned claimable")

	return &SpawnResult{Claimable: claimable, SpawnedAt: now}, nil
}

func (s *spawnService) activate(ctx context.Context, claimable models.ActiveClaimable) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, storageErr("begin activate", err)
	}
	defer uow.Rollback()

	activated, err := uow.ClaimableRepository().Activate(ctx, claimable.GuildID, claimable.Kind, claimable.MessageID, claimable.ChannelID)
	if err != nil {
		return false, storageErr("activate claimable", err)
	}
	if !activated {
		return false, nil
	}

	uow.EventBus().Publish(events.ClaimableSpawnedEvent{
		GuildID:   claimable.GuildID,
		ChannelID: claimable.ChannelID,
		MessageID: claimable.MessageID,
		Kind:      claimable.Kind,
	})

	if err := uow.Commit(); err != nil {
		return false, storageErr("commit activate", err)
	}
	return true, nil
}
