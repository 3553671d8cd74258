package repository

import (
	"context"
	"errors"
	"fmt"

	"nerdbot/database"
	"nerdbot/models"

	"github.com/jackc/pgx/v5"
)

// ModerationRepository implements the ModerationRepository interface
type ModerationRepository struct {
	q Queryable
}

// NewModerationRepository creates a new moderation repository
func NewModerationRepository(db *database.DB) *ModerationRepository {
	return &ModerationRepository{q: db.Pool}
}

func newModerationRepositoryWithTx(tx Queryable) *ModerationRepository {
	return &ModerationRepository{q: tx}
}

// Get retrieves the record for a member and type
func (r *ModerationRepository) Get(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (*models.ModerationRecord, error) {
	query := `
		SELECT id, discord_id, guild_id, moderator_id, type, affected_channel_ids, created_at
		FROM moderation_records
		WHERE discord_id = $1 AND guild_id = $2 AND type = $3
	`

	var record models.ModerationRecord
	var recordType string
	err := r.q.QueryRow(ctx, query, discordID, guildID, string(modType)).Scan(
		&record.ID,
		&record.DiscordID,
		&record.GuildID,
		&record.ModeratorID,
		&recordType,
		&record.AffectedChannelIDs,
		&record.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s record for user %d in guild %d: %w", modType, discordID, guildID, err)
	}
	record.Type = models.ModerationType(recordType)
	return &record, nil
}

// Create stores a record, reporting false when one already exists for the member and type
func (r *ModerationRepository) Create(ctx context.Context, record *models.ModerationRecord) (bool, error) {
	channels := record.AffectedChannelIDs
	if channels == nil {
		channels = []int64{}
	}

	query := `
		INSERT INTO moderation_records (discord_id, guild_id, moderator_id, type, affected_channel_ids)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (discord_id, guild_id, type) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.DiscordID,
		record.GuildID,
		record.ModeratorID,
		string(record.Type),
		channels,
	).Scan(&record.ID, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s record for user %d in guild %d: %w", record.Type, record.DiscordID, record.GuildID, err)
	}
	return true, nil
}

// SetAffectedChannels replaces the channel ids stored on an existing record
func (r *ModerationRepository) SetAffectedChannels(ctx context.Context, discordID, guildID int64, modType models.ModerationType, channelIDs []int64) error {
	if channelIDs == nil {
		channelIDs = []int64{}
	}

	query := `
		UPDATE moderation_records
		SET affected_channel_ids = $4
		WHERE discord_id = $1 AND guild_id = $2 AND type = $3
	`

	tag, err := r.q.Exec(ctx, query, discordID, guildID, string(modType), channelIDs)
	if err != nil {
		return fmt.Errorf("failed to set channels on %s record for user %d in guild %d: %w", modType, discordID, guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no %s record for user %d in guild %d", modType, discordID, guildID)
	}
	return nil
}

// Delete removes the record and reports whether one existed
func (r *ModerationRepository) Delete(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (bool, error) {
	query := `
		DELETE FROM moderation_records
		WHERE discord_id = $1 AND guild_id = $2 AND type = $3
	`

	tag, err := r.q.Exec(ctx, query, discordID, guildID, string(modType))
	if err != nil {
		return false, fmt.Errorf("failed to delete %s record for user %d in guild %d: %w", modType, discordID, guildID, err)
	}
	return tag.RowsAffected() > 0, nil
}
