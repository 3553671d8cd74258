package repository

import (
	"context"
	"fmt"

	"nerdbot/database"
	"nerdbot/models"

	"github.com/jackc/pgx/v5"
)

// UserScoreRepository implements the UserScoreRepository interface
type UserScoreRepository struct {
	q Queryable
}

// NewUserScoreRepository creates a new user score repository
func NewUserScoreRepository(db *database.DB) *UserScoreRepository {
	return &UserScoreRepository{q: db.Pool}
}

func newUserScoreRepositoryWithTx(tx Queryable) *UserScoreRepository {
	return &UserScoreRepository{q: tx}
}

const userScoreColumns = `discord_id, coins_caught, clams_caught, created_at, updated_at`

func scanUserScore(row pgx.Row) (*models.UserScore, error) {
	var s models.UserScore
	err := row.Scan(
		&s.DiscordID,
		&s.CoinsCaught,
		&s.ClamsCaught,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// scoreColumn maps a kind to its column. Only validated kinds reach SQL.
func scoreColumn(kind models.ClaimableKind) (string, error) {
	switch kind {
	case models.ClaimableKindCoin:
		return "coins_caught", nil
	case models.ClaimableKindClam:
		return "clams_caught", nil
	default:
		return "", fmt.Errorf("unknown claimable kind %q", kind)
	}
}

// GetOrCreate retrieves a user's scores, creating the record with the starting balance if absent
func (r *UserScoreRepository) GetOrCreate(ctx context.Context, discordID int64, startingCoins int64) (*models.UserScore, error) {
	insert := `
		INSERT INTO user_scores (discord_id, coins_caught, clams_caught)
		VALUES ($1, $2, $3)
		ON CONFLICT (discord_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, discordID, startingCoins, models.DefaultClamsCaught); err != nil {
		return nil, fmt.Errorf("failed to create scores for user %d: %w", discordID, err)
	}

	query := `SELECT ` + userScoreColumns + ` FROM user_scores WHERE discord_id = $1`
	score, err := scanUserScore(r.q.QueryRow(ctx, query, discordID))
	if err != nil {
		return nil, fmt.Errorf("failed to get scores for user %d: %w", discordID, err)
	}
	return score, nil
}

// Add atomically adds delta to the kind's total, creating the user first if
// needed, and returns the new total
func (r *UserScoreRepository) Add(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64, startingCoins int64) (int64, error) {
	column, err := scoreColumn(kind)
	if err != nil {
		return 0, err
	}

	// $2 is the delta, applied on top of the defaults for a brand new user
	var query string
	if kind == models.ClaimableKindCoin {
		query = `
			INSERT INTO user_scores (discord_id, coins_caught, clams_caught)
			VALUES ($1, $3::bigint + $2::bigint, $4)
			ON CONFLICT (discord_id) DO UPDATE
			SET coins_caught = user_scores.coins_caught + $2, updated_at = NOW()
			RETURNING ` + column
	} else {
		query = `
			INSERT INTO user_scores (discord_id, coins_caught, clams_caught)
			VALUES ($1, $3, $4::bigint + $2::bigint)
			ON CONFLICT (discord_id) DO UPDATE
			SET clams_caught = user_scores.clams_caught + $2, updated_at = NOW()
			RETURNING ` + column
	}

	var total int64
	err = r.q.QueryRow(ctx, query, discordID, delta, startingCoins, models.DefaultClamsCaught).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to add %d %s for user %d: %w", delta, kind, discordID, err)
	}
	return total, nil
}

// Top returns the highest totals among candidateIDs, ties broken by ascending user ID
func (r *UserScoreRepository) Top(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.UserScore, error) {
	column, err := scoreColumn(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + userScoreColumns + `
		FROM user_scores
		WHERE discord_id = ANY($1)
		ORDER BY ` + column + ` DESC, discord_id ASC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, candidateIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %s scores: %w", kind, err)
	}
	defer rows.Close()

	var scores []*models.UserScore
	for rows.Next() {
		score, err := scanUserScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user scores: %w", err)
	}
	return scores, nil
}
