package models

import "time"

// Guild is a server the bot has joined at least once. Rows are never deleted;
// leaving a guild only clears Active.
type Guild struct {
	GuildID          int64     `db:"guild_id"`
	Active           bool      `db:"active"`
	ChangelogVersion int       `db:"changelog_version"`
	LastReactorID    *int64    `db:"last_reactor_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
