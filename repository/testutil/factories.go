package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nerdbot/database"
	"nerdbot/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestGuild inserts an active guild
func CreateTestGuild(t *testing.T, db *database.DB, guildID int64) {
	t.Helper()
	_, err := db.Exec(context.Background(), `INSERT INTO guilds (guild_id) VALUES ($1)`, guildID)
	require.NoError(t, err)
}

// SeedGuild inserts a guild together with its claimable rows in one transaction
func SeedGuild(t *testing.T, db *database.DB, guildID int64, states ...*models.GuildClaimable) {
	t.Helper()
	err := withTransaction(context.Background(), db, func(tx pgx.Tx) error {
		ctx := context.Background()
		if _, err := tx.Exec(ctx, `INSERT INTO guilds (guild_id) VALUES ($1)`, guildID); err != nil {
			return err
		}
		for _, state := range states {
			if _, err := tx.Exec(ctx, insertClaimableSQL,
				state.GuildID,
				string(state.Kind),
				state.IsActive,
				state.CurrentMessageID,
				state.CurrentChannelID,
				state.LastCaughtAt,
			); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// withTransaction runs fn inside a transaction, committing when fn succeeds.
// Rolling back after a successful commit is a no-op in pgx.
func withTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const insertClaimableSQL = `
	INSERT INTO guild_claimables (guild_id, kind, is_active, current_message_id, current_channel_id, last_caught_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// CreateTestClaimable inserts a claimable state row for an existing guild
func CreateTestClaimable(t *testing.T, db *database.DB, state *models.GuildClaimable) {
	t.Helper()
	_, err := db.Exec(context.Background(), insertClaimableSQL,
		state.GuildID,
		string(state.Kind),
		state.IsActive,
		state.CurrentMessageID,
		state.CurrentChannelID,
		state.LastCaughtAt,
	)
	require.NoError(t, err)
}

// IdleClaimable builds an inactive state caught at lastCaughtAt
func IdleClaimable(guildID int64, kind models.ClaimableKind, lastCaughtAt time.Time) *models.GuildClaimable {
	return &models.GuildClaimable{
		GuildID:      guildID,
		Kind:         kind,
		LastCaughtAt: lastCaughtAt.UTC().Truncate(time.Microsecond),
	}
}

// LiveClaimable builds an active state announced by messageID in channelID
func LiveClaimable(guildID int64, kind models.ClaimableKind, messageID, channelID int64, lastCaughtAt time.Time) *models.GuildClaimable {
	state := IdleClaimable(guildID, kind, lastCaughtAt)
	state.IsActive = true
	state.CurrentMessageID = &messageID
	state.CurrentChannelID = &channelID
	return state
}

// CreateTestMuteRecord builds a mute record for a member
func CreateTestMuteRecord(discordID, guildID, moderatorID int64, channelIDs ...int64) *models.ModerationRecord {
	return &models.ModerationRecord{
		DiscordID:          discordID,
		GuildID:            guildID,
		ModeratorID:        moderatorID,
		Type:               models.ModerationTypeMute,
		AffectedChannelIDs: channelIDs,
	}
}
