package service

import (
	"context"

	"nerdbot/config"
	"nerdbot/events"
	"nerdbot/models"

	log "github.com/sirupsen/logrus"
)

// clamReward is the fixed count added for every clam claimed
const clamReward int64 = 1

// ClaimSettings tunes claim rewards
type ClaimSettings struct {
	CoinRewardMin int64
	CoinRewardMax int64
	StartingCoins int64
}

// ClaimSettingsFromConfig builds claim settings from the loaded configuration
func ClaimSettingsFromConfig(cfg *config.Config) ClaimSettings {
	return ClaimSettings{
		CoinRewardMin: cfg.CoinRewardMin,
		CoinRewardMax: cfg.CoinRewardMax,
		StartingCoins: cfg.StartingCoins,
	}
}

type claimService struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
	locks      *ClaimableLocks
	clock      Clock
	roller     Roller
	settings   ClaimSettings
}

// NewClaimService creates a new claim service
func NewClaimService(uowFactory UnitOfWorkFactory, notifier Notifier, locks *ClaimableLocks, clock Clock, roller Roller, settings ClaimSettings) ClaimService {
	return &claimService{
		uowFactory: uowFactory,
		notifier:   notifier,
		locks:      locks,
		clock:      clock,
		roller:     roller,
		settings:   settings,
	}
}

// Claim resolves a claim command. The score update and the deactivation commit
// together; editing the announcement afterwards is best effort and happens
// after the claimable lock is released.
func (s *claimService) Claim(ctx context.Context, guildID, channelID int64, claimant Member, kind models.ClaimableKind) (*ClaimOutcome, error) {
	if err := kind.Validate(); err != nil {
		return nil, invalidArgument(err)
	}

	outcome, claimed, err := s.resolve(ctx, guildID, channelID, claimant, kind)
	if err != nil || claimed == nil {
		return outcome, err
	}

	if err := s.notifier.MarkClaimed(ctx, *claimed, claimant, outcome.Reward); err != nil {
		log.WithFields(log.Fields{
			"guildID":   guildID,
			"kind":      kind,
			"messageID": claimed.MessageID,
			"error":     err,
		}).Warn("Claim committed but announcement could not be edited")
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"kind":    kind,
		"userID":  claimant.UserID,
		"reward":  outcome.Reward,
	}).Info("Claimable claimed")

	return outcome, nil
}

// resolve runs the claim transaction under the claimable lock. The returned
// claimable is non-nil only when the claim committed.
func (s *claimService) resolve(ctx context.Context, guildID, channelID int64, claimant Member, kind models.ClaimableKind) (*ClaimOutcome, *models.ActiveClaimable, error) {
	unlock := s.locks.lock(guildID, kind)
	defer unlock()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, storageErr("begin claim", err)
	}
	defer uow.Rollback()

	state, err := uow.ClaimableRepository().GetForUpdate(ctx, guildID, kind)
	if err != nil {
		return nil, nil, storageErr("load claimable", err)
	}

	active := state.Active()
	if active == nil {
		return &ClaimOutcome{Status: ClaimStatusNoCollectible, Kind: kind}, nil, nil
	}
	if active.ChannelID != channelID {
		return &ClaimOutcome{Status: ClaimStatusWrongChannel, Kind: kind}, nil, nil
	}

	reward := s.reward(kind)

	newTotal, err := uow.UserScoreRepository().Add(ctx, claimant.UserID, kind, reward, s.settings.StartingCoins)
	if err != nil {
		return nil, nil, storageErr("add score", err)
	}

	claimedAt := s.clock.Now()
	deactivated, err := uow.ClaimableRepository().Deactivate(ctx, guildID, kind, claimedAt)
	if err != nil {
		return nil, nil, storageErr("deactivate claimable", err)
	}
	if !deactivated {
		// The row lock makes this unreachable unless the lock was bypassed
		return &ClaimOutcome{Status: ClaimStatusNoCollectible, Kind: kind}, nil, nil
	}

	uow.EventBus().Publish(events.ClaimableClaimedEvent{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: active.MessageID,
		Kind:      kind,
		UserID:    claimant.UserID,
		Reward:    reward,
	})
	uow.EventBus().Publish(events.ScoreChangedEvent{
		UserID:   claimant.UserID,
		Kind:     kind,
		Delta:    reward,
		NewTotal: newTotal,
	})

	if err := uow.Commit(); err != nil {
		return nil, nil, storageErr("commit claim", err)
	}

	return &ClaimOutcome{
		Status:       ClaimStatusClaimed,
		Kind:         kind,
		Reward:       reward,
		NewTotal:     newTotal,
		ClaimantName: claimant.DisplayName,
	}, active, nil
}

func (s *claimService) reward(kind models.ClaimableKind) int64 {
	if kind == models.ClaimableKindClam {
		return clamReward
	}
	return int64(s.roller.Roll(int(s.settings.CoinRewardMin), int(s.settings.CoinRewardMax)))
}
