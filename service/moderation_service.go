package service

import (
	"context"
	"fmt"

	"nerdbot/events"
	"nerdbot/models"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

type moderationService struct {
	uowFactory  UnitOfWorkFactory
	permissions PermissionSetter
}

// NewModerationService creates a new moderation service
func NewModerationService(uowFactory UnitOfWorkFactory, permissions PermissionSetter) ModerationService {
	return &moderationService{
		uowFactory:  uowFactory,
		permissions: permissions,
	}
}

// Mute revokes send permission on channelIDs, which the caller limits to the
// channels the target can currently send in. The record is inserted first so a
// concurrent mute cannot touch permissions, then filled with the channels that
// actually changed. Any failure after revoking restores those channels.
func (s *moderationService) Mute(ctx context.Context, guildID, moderatorID int64, target Member, channelIDs []int64) (*ModerationResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin mute", err)
	}
	defer uow.Rollback()

	existing, err := uow.ModerationRepository().Get(ctx, target.UserID, guildID, models.ModerationTypeMute)
	if err != nil {
		return nil, storageErr("get moderation record", err)
	}
	if existing != nil {
		return nil, ErrAlreadyMuted
	}

	created, err := uow.ModerationRepository().Create(ctx, &models.ModerationRecord{
		DiscordID:   target.UserID,
		GuildID:     guildID,
		ModeratorID: moderatorID,
		Type:        models.ModerationTypeMute,
	})
	if err != nil {
		return nil, storageErr("create moderation record", err)
	}
	if !created {
		return nil, ErrAlreadyMuted
	}

	changed, failed := s.setSendPermission(ctx, channelIDs, target.UserID, false)
	if len(changed) == 0 {
		if failed == nil {
			return nil, ErrNoChannelsChanged
		}
		return nil, fmt.Errorf("%w: %w", ErrNoChannelsChanged, failed)
	}

	if err := uow.ModerationRepository().SetAffectedChannels(ctx, target.UserID, guildID, models.ModerationTypeMute, changed); err != nil {
		s.undoMute(ctx, guildID, target.UserID, changed)
		return nil, storageErr("record muted channels", err)
	}

	uow.EventBus().Publish(events.UserMutedEvent{
		GuildID:         guildID,
		UserID:          target.UserID,
		ModeratorID:     moderatorID,
		RevokedChannels: len(changed),
		FailedChannels:  errorCount(failed),
	})

	if err := uow.Commit(); err != nil {
		s.undoMute(ctx, guildID, target.UserID, changed)
		return nil, storageErr("commit mute", err)
	}

	log.WithFields(log.Fields{
		"guildID":     guildID,
		"userID":      target.UserID,
		"moderatorID": moderatorID,
		"revoked":     len(changed),
		"failed":      errorCount(failed),
	}).Info("Muted member")

	return &ModerationResult{ChangedChannelIDs: changed, Failed: failed.ErrorOrNil()}, nil
}

// undoMute gives back send permission on channels revoked by a mute that could not be recorded
func (s *moderationService) undoMute(ctx context.Context, guildID, userID int64, channelIDs []int64) {
	restored, failed := s.setSendPermission(ctx, channelIDs, userID, true)
	entry := log.WithFields(log.Fields{
		"guildID":  guildID,
		"userID":   userID,
		"restored": len(restored),
	})
	if failed != nil {
		entry.WithError(failed).Error("Mute was not recorded and some channels could not be restored")
		return
	}
	entry.Warn("Mute was not recorded; restored revoked channels")
}

// Unmute restores send permission on the channels recorded by the mute and
// removes the record
func (s *moderationService) Unmute(ctx context.Context, guildID int64, target Member) (*ModerationResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageErr("begin unmute", err)
	}
	defer uow.Rollback()

	record, err := uow.ModerationRepository().Get(ctx, target.UserID, guildID, models.ModerationTypeMute)
	if err != nil {
		return nil, storageErr("get moderation record", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}

	changed, failed := s.setSendPermission(ctx, record.AffectedChannelIDs, target.UserID, true)

	deleted, err := uow.ModerationRepository().Delete(ctx, target.UserID, guildID, models.ModerationTypeMute)
	if err != nil {
		return nil, storageErr("delete moderation record", err)
	}
	if !deleted {
		return nil, ErrNotFound
	}

	uow.EventBus().Publish(events.UserUnmutedEvent{
		GuildID:          guildID,
		UserID:           target.UserID,
		RestoredChannels: len(changed),
	})

	if err := uow.Commit(); err != nil {
		return nil, storageErr("commit unmute", err)
	}

	log.WithFields(log.Fields{
		"guildID":  guildID,
		"userID":   target.UserID,
		"restored": len(changed),
		"failed":   errorCount(failed),
	}).Info("Unmuted member")

	return &ModerationResult{ChangedChannelIDs: changed, Failed: failed.ErrorOrNil()}, nil
}

func (s *moderationService) setSendPermission(ctx context.Context, channelIDs []int64, userID int64, allowed bool) ([]int64, *multierror.Error) {
	changed := make([]int64, 0, len(channelIDs))
	var failed *multierror.Error

	for _, channelID := range channelIDs {
		if err := s.permissions.SetChannelSendPermission(ctx, channelID, userID, allowed); err != nil {
			failed = multierror.Append(failed, fmt.Errorf("channel %d: %w", channelID, err))
			continue
		}
		changed = append(changed, channelID)
	}
	return changed, failed
}

func errorCount(err *multierror.Error) int {
	if err == nil {
		return 0
	}
	return len(err.Errors)
}
