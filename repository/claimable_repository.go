package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nerdbot/database"
	"nerdbot/models"

	"github.com/jackc/pgx/v5"
)

// ClaimableRepository implements the ClaimableRepository interface
type ClaimableRepository struct {
	q Queryable
}

// NewClaimableRepository creates a new claimable repository
func NewClaimableRepository(db *database.DB) *ClaimableRepository {
	return &ClaimableRepository{q: db.Pool}
}

func newClaimableRepositoryWithTx(tx Queryable) *ClaimableRepository {
	return &ClaimableRepository{q: tx}
}

const claimableColumns = `guild_id, kind, is_active, current_message_id, current_channel_id, last_caught_at, updated_at`

func scanClaimable(row pgx.Row) (*models.GuildClaimable, error) {
	var c models.GuildClaimable
	var kind string
	err := row.Scan(
		&c.GuildID,
		&kind,
		&c.IsActive,
		&c.CurrentMessageID,
		&c.CurrentChannelID,
		&c.LastCaughtAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Kind = models.ClaimableKind(kind)
	return &c, nil
}

// Get retrieves the state of one kind in a guild
func (r *ClaimableRepository) Get(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	return r.get(ctx, guildID, kind, false)
}

// GetForUpdate retrieves the state and locks the row until the transaction ends
func (r *ClaimableRepository) GetForUpdate(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error) {
	return r.get(ctx, guildID, kind, true)
}

func (r *ClaimableRepository) get(ctx context.Context, guildID int64, kind models.ClaimableKind, forUpdate bool) (*models.GuildClaimable, error) {
	query := `SELECT ` + claimableColumns + ` FROM guild_claimables WHERE guild_id = $1 AND kind = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	state, err := scanClaimable(r.q.QueryRow(ctx, query, guildID, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s state for guild %d: %w", kind, guildID, err)
	}
	return state, nil
}

// GetActive returns the live collectible, or nil when there is none
func (r *ClaimableRepository) GetActive(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.ActiveClaimable, error) {
	state, err := r.Get(ctx, guildID, kind)
	if err != nil {
		return nil, err
	}
	return state.Active(), nil
}

// Initialize creates an inactive row when none exists. An existing row is left
// untouched so its cooldown survives.
func (r *ClaimableRepository) Initialize(ctx context.Context, guildID int64, kind models.ClaimableKind, lastCaughtAt time.Time) (bool, error) {
	query := `
		INSERT INTO guild_claimables (guild_id, kind, last_caught_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, kind) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, guildID, string(kind), lastCaughtAt)
	if err != nil {
		return false, fmt.Errorf("failed to initialize %s state for guild %d: %w", kind, guildID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Activate records a spawned collectible. It only succeeds when nothing of this
// kind is live, so concurrent spawns cannot overwrite each other.
func (r *ClaimableRepository) Activate(ctx context.Context, guildID int64, kind models.ClaimableKind, messageID, channelID int64) (bool, error) {
	query := `
		UPDATE guild_claimables
		SET is_active = TRUE,
		    current_message_id = $3,
		    current_channel_id = $4,
		    updated_at = NOW()
		WHERE guild_id = $1 AND kind = $2 AND NOT is_active
	`

	tag, err := r.q.Exec(ctx, query, guildID, string(kind), messageID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to activate %s for guild %d: %w", kind, guildID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Deactivate clears the live collectible and moves last_caught_at forward.
// last_caught_at never moves backwards.
func (r *ClaimableRepository) Deactivate(ctx context.Context, guildID int64, kind models.ClaimableKind, claimedAt time.Time) (bool, error) {
	query := `
		UPDATE guild_claimables
		SET is_active = FALSE,
		    current_message_id = NULL,
		    current_channel_id = NULL,
		    last_caught_at = GREATEST(last_caught_at, $3),
		    updated_at = NOW()
		WHERE guild_id = $1 AND kind = $2 AND is_active
	`

	tag, err := r.q.Exec(ctx, query, guildID, string(kind), claimedAt)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate %s for guild %d: %w", kind, guildID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// TimeSinceLastCaught returns now minus last_caught_at. A guild that was never
// initialized reports zero.
func (r *ClaimableRepository) TimeSinceLastCaught(ctx context.Context, guildID int64, kind models.ClaimableKind, now time.Time) (time.Duration, error) {
	state, err := r.Get(ctx, guildID, kind)
	if err != nil {
		return 0, err
	}
	if state == nil {
		return 0, nil
	}
	return now.Sub(state.LastCaughtAt), nil
}
