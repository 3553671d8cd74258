package models

import "time"

// ModerationType represents the kind of moderation action applied to a member
type ModerationType string

const (
	ModerationTypeMute ModerationType = "mute"
)

// ModerationRecord remembers which channels a moderation action touched so it
// can be undone exactly. At most one record exists per (user, guild, type).
type ModerationRecord struct {
	ID                 int64          `db:"id"`
	DiscordID          int64          `db:"discord_id"`
	GuildID            int64          `db:"guild_id"`
	ModeratorID        int64          `db:"moderator_id"`
	Type               ModerationType `db:"type"`
	AffectedChannelIDs []int64        `db:"affected_channel_ids"`
	CreatedAt          time.Time      `db:"created_at"`
}
