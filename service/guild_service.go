package service

import (
	"context"

	"nerdbot/models"

	log "github.com/sirupsen/logrus"
)

type guildService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
}

// NewGuildService creates a new guild service
func NewGuildService(uowFactory UnitOfWorkFactory, clock Clock) GuildService {
	return &guildService{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// HandleJoin records a new guild with idle claimables, or reactivates a returning one
func (s *guildService) HandleJoin(ctx context.Context, guildID int64) (*models.Guild, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin join", err)
	}
	defer uow.Rollback()

	guild, err := s.joinWithin(ctx, uow, guildID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, storageErr("commit join", err)
	}
	return guild, nil
}

// joinWithin creates or reactivates the guild inside an existing unit of work
func (s *guildService) joinWithin(ctx context.Context, uow UnitOfWork, guildID int64) (*models.Guild, error) {
	guild, err := uow.GuildRepository().GetByID(ctx, guildID)
	if err != nil {
		return nil, storageErr("get guild", err)
	}

	if guild == nil {
		guild, err = uow.GuildRepository().Create(ctx, guildID)
		if err != nil {
			return nil, storageErr("create guild", err)
		}
		log.WithField("guildID", guildID).Info("Recorded new guild")
	} else if !guild.Active {
		if err := uow.GuildRepository().SetActive(ctx, guildID, true); err != nil {
			return nil, storageErr("reactivate guild", err)
		}
		guild.Active = true
		log.WithField("guildID", guildID).Info("Reactivated returning guild")
	}

	// Rows that already exist keep their cooldown
	now := s.clock.Now()
	for _, kind := range models.ClaimableKinds {
		if _, err := uow.ClaimableRepository().Initialize(ctx, guildID, kind, now); err != nil {
			return nil, storageErr("initialize claimable", err)
		}
	}

	return guild, nil
}

// HandleLeave marks the guild inactive; its data is kept for a later rejoin
func (s *guildService) HandleLeave(ctx context.Context, guildID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return storageErr("begin leave", err)
	}
	defer uow.Rollback()

	guild, err := uow.GuildRepository().GetByID(ctx, guildID)
	if err != nil {
		return storageErr("get guild", err)
	}
	if guild == nil {
		return ErrNotFound
	}

	if err := uow.GuildRepository().SetActive(ctx, guildID, false); err != nil {
		return storageErr("deactivate guild", err)
	}

	if err := uow.Commit(); err != nil {
		return storageErr("commit leave", err)
	}

	log.WithField("guildID", guildID).Info("Guild marked inactive")
	return nil
}

// SyncGuilds records every connected guild and returns the ones whose stored
// changelog version is behind latestChangelog. Their stored version is advanced
// in the same transaction, so each changelog is announced at most once.
func (s *guildService) SyncGuilds(ctx context.Context, guildIDs []int64, latestChangelog int) ([]int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin guild sync", err)
	}
	defer uow.Rollback()

	var outdated []int64
	for _, guildID := range guildIDs {
		guild, err := s.joinWithin(ctx, uow, guildID)
		if err != nil {
			return nil, err
		}

		if guild.ChangelogVersion >= latestChangelog {
			continue
		}
		if err := uow.GuildRepository().SetChangelogVersion(ctx, guildID, latestChangelog); err != nil {
			return nil, storageErr("set changelog version", err)
		}
		outdated = append(outdated, guildID)
	}

	if err := uow.Commit(); err != nil {
		return nil, storageErr("commit guild sync", err)
	}

	log.WithFields(log.Fields{
		"guilds":   len(guildIDs),
		"outdated": len(outdated),
		"version":  latestChangelog,
	}).Info("Synced guilds")

	return outdated, nil
}

// RecordReactor allows a reaction reply unless the same user triggered the previous one
func (s *guildService) RecordReactor(ctx context.Context, guildID, userID int64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, storageErr("begin record reactor", err)
	}
	defer uow.Rollback()

	guild, err := uow.GuildRepository().GetByID(ctx, guildID)
	if err != nil {
		return false, storageErr("get guild", err)
	}
	if guild == nil {
		return false, ErrNotFound
	}

	if guild.LastReactorID != nil && *guild.LastReactorID == userID {
		return false, nil
	}

	if err := uow.GuildRepository().SetLastReactor(ctx, guildID, userID); err != nil {
		return false, storageErr("set last reactor", err)
	}

	if err := uow.Commit(); err != nil {
		return false, storageErr("commit record reactor", err)
	}
	return true, nil
}
