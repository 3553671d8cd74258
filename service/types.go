package service

import (
	"math/rand/v2"
	"time"

	"nerdbot/models"
)

// Member is a guild member resolved by the chat layer. Only the bot's member
// lookup produces it, so services never see an unresolved user.
type Member struct {
	UserID      int64
	DisplayName string
}

// SpawnResult describes a collectible that was spawned by a message
type SpawnResult struct {
	Claimable models.ActiveClaimable
	SpawnedAt time.Time
}

// ClaimStatus is the outcome category of a claim attempt
type ClaimStatus int

const (
	ClaimStatusClaimed ClaimStatus = iota
	ClaimStatusNoCollectible
	ClaimStatusWrongChannel
)

func (s ClaimStatus) String() string {
	switch s {
	case ClaimStatusClaimed:
		return "claimed"
	case ClaimStatusNoCollectible:
		return "no_collectible_available"
	case ClaimStatusWrongChannel:
		return "wrong_channel"
	default:
		return "unknown"
	}
}

// ClaimOutcome is the result of a claim attempt. Reward and NewTotal are only
// meaningful when Status is ClaimStatusClaimed.
type ClaimOutcome struct {
	Status       ClaimStatus
	Kind         models.ClaimableKind
	Reward       int64
	NewTotal     int64
	ClaimantName string
}

// ModerationResult reports which channels a mute or unmute touched. Failed is
// non-nil when some channels could not be changed.
type ModerationResult struct {
	ChangedChannelIDs []int64
	Failed            error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC
func SystemClock() Clock { return systemClock{} }

type randomRoller struct{}

func (randomRoller) Roll(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// RandomRoller returns a Roller backed by math/rand/v2
func RandomRoller() Roller { return randomRoller{} }
