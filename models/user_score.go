package models

import "time"

// DefaultClamsCaught is the clam count of a freshly created user
const DefaultClamsCaught int64 = 0

// UserScore holds a user's collectible totals. Scores are global, not per guild.
type UserScore struct {
	DiscordID   int64     `db:"discord_id"`
	CoinsCaught int64     `db:"coins_caught"`
	ClamsCaught int64     `db:"clams_caught"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// For returns the total tracked for the given kind
func (s *UserScore) For(kind ClaimableKind) int64 {
	if kind == ClaimableKindClam {
		return s.ClamsCaught
	}
	return s.CoinsCaught
}

// ScoreboardEntry is one ranked row of a leaderboard
type ScoreboardEntry struct {
	Rank      int
	DiscordID int64
	Score     int64
}
