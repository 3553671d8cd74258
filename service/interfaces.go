package service

import (
	"context"
	"time"

	"nerdbot/events"
	"nerdbot/models"
)

// GuildRepository defines the interface for guild data access
type GuildRepository interface {
	// GetByID retrieves a guild, returning nil if it was never recorded
	GetByID(ctx context.Context, guildID int64) (*models.Guild, error)

	// Create inserts a new active guild with changelog version 0
	Create(ctx context.Context, guildID int64) (*models.Guild, error)

	// EnsureExists inserts the guild if it is missing and reports whether it did
	EnsureExists(ctx context.Context, guildID int64) (bool, error)

	// SetActive toggles the active flag of a guild
	SetActive(ctx context.Context, guildID int64, active bool) error

	// SetChangelogVersion stores the latest changelog version announced to a guild
	SetChangelogVersion(ctx context.Context, guildID int64, version int) error

	// SetLastReactor stores the user who last triggered a reaction reply
	SetLastReactor(ctx context.Context, guildID int64, userID int64) error

	// GetAll returns every guild ever recorded
	GetAll(ctx context.Context) ([]*models.Guild, error)
}

// ClaimableRepository defines the interface for per-guild claimable state
type ClaimableRepository interface {
	// Get retrieves the state row, returning nil if it was never initialized
	Get(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error)

	// GetForUpdate is Get with the row locked until the transaction ends
	GetForUpdate(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.GuildClaimable, error)

	// GetActive returns the unclaimed collectible, or nil if none is live
	GetActive(ctx context.Context, guildID int64, kind models.ClaimableKind) (*models.ActiveClaimable, error)

	// Initialize creates an inactive row if none exists and reports whether it did
	Initialize(ctx context.Context, guildID int64, kind models.ClaimableKind, lastCaughtAt time.Time) (bool, error)

	// Activate marks the collectible live only if it is currently inactive
	Activate(ctx context.Context, guildID int64, kind models.ClaimableKind, messageID, channelID int64) (bool, error)

	// Deactivate clears a live collectible and advances last_caught_at; a no-op when inactive
	Deactivate(ctx context.Context, guildID int64, kind models.ClaimableKind, claimedAt time.Time) (bool, error)

	// TimeSinceLastCaught returns now minus the last successful claim
	TimeSinceLastCaught(ctx context.Context, guildID int64, kind models.ClaimableKind, now time.Time) (time.Duration, error)
}

// UserScoreRepository defines the interface for global user score data access
type UserScoreRepository interface {
	// GetOrCreate retrieves a user's scores, creating the record with the starting balance if absent
	GetOrCreate(ctx context.Context, discordID int64, startingCoins int64) (*models.UserScore, error)

	// Add atomically adds delta to the kind's total and returns the new total
	Add(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64, startingCoins int64) (int64, error)

	// Top returns the highest scores for kind among the candidate users
	Top(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.UserScore, error)
}

// ModerationRepository defines the interface for moderation record data access
type ModerationRepository interface {
	// Get retrieves the record for a member, returning nil if none exists
	Get(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (*models.ModerationRecord, error)

	// Create stores a record; it reports false if one already exists for the member and type
	Create(ctx context.Context, record *models.ModerationRecord) (bool, error)

	// SetAffectedChannels replaces the channel ids stored on an existing record
	SetAffectedChannels(ctx context.Context, discordID, guildID int64, modType models.ModerationType, channelIDs []int64) error

	// Delete removes the record and reports whether one existed
	Delete(ctx context.Context, discordID, guildID int64, modType models.ModerationType) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	GuildRepository() GuildRepository
	ClaimableRepository() ClaimableRepository
	UserScoreRepository() UserScoreRepository
	ModerationRepository() ModerationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Notifier posts and edits collectible announcements in chat
type Notifier interface {
	// AnnounceClaimable posts the spawn announcement and returns its message ID
	AnnounceClaimable(ctx context.Context, channelID int64, kind models.ClaimableKind) (int64, error)

	// MarkClaimed edits the announcement to credit the claimant
	MarkClaimed(ctx context.Context, claimable models.ActiveClaimable, claimant Member, reward int64) error

	// RetractClaimable removes an announcement that lost a spawn race
	RetractClaimable(ctx context.Context, claimable models.ActiveClaimable) error
}

// PermissionSetter changes per-member channel permission overrides
type PermissionSetter interface {
	SetChannelSendPermission(ctx context.Context, channelID, userID int64, allowed bool) error
}

// Clock abstracts the current time
type Clock interface {
	Now() time.Time
}

// Roller draws uniformly random integers in [min, max]
type Roller interface {
	Roll(min, max int) int
}

// SpawnService decides whether a message spawns a collectible
type SpawnService interface {
	// HandleMessage runs the spawn check for one message; the result is nil when nothing spawned
	HandleMessage(ctx context.Context, guildID, channelID int64) (*SpawnResult, error)
}

// ClaimService resolves claim commands
type ClaimService interface {
	// Claim attempts to claim the live collectible of kind in channelID
	Claim(ctx context.Context, guildID, channelID int64, claimant Member, kind models.ClaimableKind) (*ClaimOutcome, error)
}

// ScoreService defines the interface for user score operations
type ScoreService interface {
	// GetScore returns a user's total for kind, creating the user with defaults if needed
	GetScore(ctx context.Context, discordID int64, kind models.ClaimableKind) (int64, error)

	// AddToScore adds delta to a user's total for kind and returns the new total
	AddToScore(ctx context.Context, discordID int64, kind models.ClaimableKind, delta int64) (int64, error)

	// TopScores ranks the candidate users by their total for kind
	TopScores(ctx context.Context, kind models.ClaimableKind, candidateIDs []int64, limit int) ([]*models.ScoreboardEntry, error)
}

// GuildService defines the interface for guild lifecycle operations
type GuildService interface {
	// HandleJoin records a newly joined guild or reactivates a returning one
	HandleJoin(ctx context.Context, guildID int64) (*models.Guild, error)

	// HandleLeave marks a guild inactive
	HandleLeave(ctx context.Context, guildID int64) error

	// SyncGuilds reconciles connected guilds at startup and returns those owed a changelog announcement
	SyncGuilds(ctx context.Context, guildIDs []int64, latestChangelog int) ([]int64, error)

	// RecordReactor stores the latest reactor and reports whether a reply is allowed
	RecordReactor(ctx context.Context, guildID, userID int64) (bool, error)
}

// ModerationService defines the interface for mute and unmute operations
type ModerationService interface {
	// Mute revokes send permission on the given channels and records which ones changed
	Mute(ctx context.Context, guildID, moderatorID int64, target Member, channelIDs []int64) (*ModerationResult, error)

	// Unmute restores send permission on the channels recorded by the mute
	Unmute(ctx context.Context, guildID int64, target Member) (*ModerationResult, error)
}
