package models

import (
	"fmt"
	"time"
)

// ClaimableKind identifies a kind of collectible that can spawn in a guild
type ClaimableKind string

const (
	ClaimableKindCoin ClaimableKind = "coin"
	ClaimableKindClam ClaimableKind = "clam"
)

// ClaimableKinds lists every kind in spawn-check order. Coin is checked first,
// so it wins when both kinds roll a spawn on the same message.
var ClaimableKinds = []ClaimableKind{ClaimableKindCoin, ClaimableKindClam}

// Validate returns an error for kinds outside the closed set
func (k ClaimableKind) Validate() error {
	switch k {
	case ClaimableKindCoin, ClaimableKindClam:
		return nil
	default:
		return fmt.Errorf("unknown claimable kind %q", string(k))
	}
}

// DisplayName returns the user-facing name of the collectible
func (k ClaimableKind) DisplayName() string {
	switch k {
	case ClaimableKindCoin:
		return "crate"
	case ClaimableKindClam:
		return "clam"
	default:
		return string(k)
	}
}

// GuildClaimable is the per-(guild, kind) spawn state.
// IsActive is true exactly when CurrentMessageID and CurrentChannelID are set.
type GuildClaimable struct {
	GuildID          int64         `db:"guild_id"`
	Kind             ClaimableKind `db:"kind"`
	IsActive         bool          `db:"is_active"`
	CurrentMessageID *int64        `db:"current_message_id"`
	CurrentChannelID *int64        `db:"current_channel_id"`
	LastCaughtAt     time.Time     `db:"last_caught_at"`
	UpdatedAt        time.Time     `db:"updated_at"`
}

// Active returns the live collectible, or nil when nothing is waiting to be claimed
func (c *GuildClaimable) Active() *ActiveClaimable {
	if c == nil || !c.IsActive || c.CurrentMessageID == nil || c.CurrentChannelID == nil {
		return nil
	}
	return &ActiveClaimable{
		GuildID:   c.GuildID,
		Kind:      c.Kind,
		MessageID: *c.CurrentMessageID,
		ChannelID: *c.CurrentChannelID,
	}
}

// ActiveClaimable identifies the announcement message of an unclaimed collectible
type ActiveClaimable struct {
	GuildID   int64
	Kind      ClaimableKind
	MessageID int64
	ChannelID int64
}
