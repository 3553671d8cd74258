package service

import (
	"context"
	"fmt"

	"nerdbot/events"
	"nerdbot/models"
)

// DefaultLeaderboardSize is the number of entries shown when no limit is given
const DefaultLeaderboardSize = 10

type scoreService struct {
	uowFactory    UnitOfWorkFactory
	startingCoins int64
}

// NewScoreService creates a new score service
func NewScoreService(uowFactory UnitOfWorkFactory, startingCoins int64) ScoreService {
	return &scoreService{
		uowFactory:    uowFactory,
		startingCoins: startingCoins,
	}
}

// GetScore returns the user's total for kind, creating the user record on first use
func (s *scoreService) GetScore(ctx context.Context, discordID int64, kind models.ClaimableKind) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, invalidArgument(err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageErr("begin get score", err)
	}
	defer uow.Rollback()

	score, err := uow.UserScoreRepository().GetOrCreate(ctx, discordID, s.startingCoins)
	if err != nil {
		return 0, storageErr("get score", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, storageErr("commit get score", err)
	}

	return score.For(kind), nil
}

// AddToScore adds a non-negative delta and returns the new total
func (s *scoreService) AddToScore(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, invalidArgument(err)
	}
	if delta < 0 {
		return 0, invalidArgument(fmt.Errorf("delta must not be negative, got %d", delta))
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageErr("begin add score", err)
	}
	defer uow.Rollback()

	total, err := uow.UserScoreRepository().Add(ctx, discordID, kind, delta, s.startingCoins)
	if err != nil {
		return 0, storageErr("add score", err)
	}

	uow.EventBus().Publish(events.ScoreChangedEvent{
		UserID:   discordID,
		Kind:     kind,
		Delta:    delta,
		NewTotal: total,
	})

	if err := uow.Commit(); err != nil {
		return 0, storageErr("commit add score", err)
	}

	return total, nil
}

// TopScores ranks candidates by score descending, breaking ties by ascending user ID.
// Candidates without a score record are left out.
func (s *scoreService) TopScores(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.ScoreboardEntry, error) {
	if err := kind.Validate(); err != nil {
		return nil, invalidArgument(err)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if len(candidateIDs) == 0 {
		return []*models.ScoreboardEntry{}, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin top scores", err)
	}
	defer uow.Rollback()

	scores, err := uow.UserScoreRepository().Top(ctx, kind, candidateIDs, limit)
	if err != nil {
		return nil, storageErr("top scores", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageErr("commit top scores", err)
	}

	entries := make([]*models.ScoreboardEntry, 0, len(scores))
	for i, score := range scores {
		entries = append(entries, &models.ScoreboardEntry{
			Rank:      i + 1,
			DiscordID: score.DiscordID,
			Score:     score.For(kind),
		})
	}
	return entries, nil
}
