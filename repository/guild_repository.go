package repository

import (
	"context"
	"errors"
	"fmt"

	"nerdbot/database"
	"nerdbot/models"

	"github.com/jackc/pgx/v5"
)

// GuildRepository implements the GuildRepository interface
type GuildRepository struct {
	q Queryable
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db *database.DB) *GuildRepository {
	return &GuildRepository{q: db.Pool}
}

func newGuildRepositoryWithTx(tx Queryable) *GuildRepository {
	return &GuildRepository{q: tx}
}

const guildColumns = `guild_id, active, changelog_version, last_reactor_id, created_at, updated_at`

func scanGuild(row pgx.Row) (*models.Guild, error) {
	var g models.Guild
	err := row.Scan(
		&g.GuildID,
		&g.Active,
		&g.ChangelogVersion,
		&g.LastReactorID,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByID retrieves a guild by ID
func (r *GuildRepository) GetByID(ctx context.Context, guildID int64) (*models.Guild, error) {
	query := `SELECT ` + guildColumns + ` FROM guilds WHERE guild_id = $1`

	guild, err := scanGuild(r.q.QueryRow(ctx, query, guildID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %d: %w", guildID, err)
	}
	return guild, nil
}

// Create inserts a new active guild
func (r *GuildRepository) Create(ctx context.Context, guildID int64) (*models.Guild, error) {
	query := `
		INSERT INTO guilds (guild_id)
		VALUES ($1)
		RETURNING ` + guildColumns

	guild, err := scanGuild(r.q.QueryRow(ctx, query, guildID))
	if err != nil {
		return nil, fmt.Errorf("failed to create guild %d: %w", guildID, err)
	}
	return guild, nil
}

// EnsureExists inserts the guild when missing and reports whether it did
func (r *GuildRepository) EnsureExists(ctx context.Context, guildID int64) (bool, error) {
	query := `
		INSERT INTO guilds (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, guildID)
	if err != nil {
		return false, fmt.Errorf("failed to ensure guild %d: %w", guildID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetActive toggles the active flag
func (r *GuildRepository) SetActive(ctx context.Context, guildID int64, active bool) error {
	query := `
		UPDATE guilds
		SET active = $2, updated_at = NOW()
		WHERE guild_id = $1
	`

	tag, err := r.q.Exec(ctx, query, guildID, active)
	if err != nil {
		return fmt.Errorf("failed to set active=%t for guild %d: %w", active, guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("guild %d not found", guildID)
	}
	return nil
}

// SetChangelogVersion stores the latest changelog announced to the guild
func (r *GuildRepository) SetChangelogVersion(ctx context.Context, guildID int64, version int) error {
	query := `
		UPDATE guilds
		SET changelog_version = $2, updated_at = NOW()
		WHERE guild_id = $1
	`

	tag, err := r.q.Exec(ctx, query, guildID, version)
	if err != nil {
		return fmt.Errorf("failed to set changelog version for guild %d: %w", guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("guild %d not found", guildID)
	}
	return nil
}

// SetLastReactor stores the user who last triggered a reaction reply
func (r *GuildRepository) SetLastReactor(ctx context.Context, guildID int64, userID int64) error {
	query := `
		UPDATE guilds
		SET last_reactor_id = $2, updated_at = NOW()
		WHERE guild_id = $1
	`

	tag, err := r.q.Exec(ctx, query, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to set last reactor for guild %d: %w", guildID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("guild %d not found", guildID)
	}
	return nil
}

// GetAll returns every recorded guild
func (r *GuildRepository) GetAll(ctx context.Context) ([]*models.Guild, error) {
	query := `SELECT ` + guildColumns + ` FROM guilds ORDER BY guild_id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*models.Guild
	for rows.Next() {
		guild, err := scanGuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		guilds = append(guilds, guild)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guilds: %w", err)
	}
	return guilds, nil
}
