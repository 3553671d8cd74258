package collectibles

import (
	"context"
	"fmt"

	"nerdbot/bot/common"
	"nerdbot/models"
	"nerdbot/service"

	log "github.com/sirupsen/logrus"
)

// HandleMessage runs the spawn check for a non-bot guild message, commands included
func (f *Feature) HandleMessage(ctx context.Context, guildID, channelID int64) {
	result, err := f.spawnService.HandleMessage(ctx, guildID, channelID)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID":   guildID,
			"channelID": channelID,
			"error":     err,
		}).Error("Spawn check failed")
		return
	}
	if result != nil {
		log.WithFields(log.Fields{
			"guildID":   guildID,
			"kind":      result.Claimable.Kind,
			"messageID": result.Claimable.MessageID,
		}).Debug("Message spawned a collectible")
	}
}

func (f *Feature) handleClaim(c *common.Command, kind models.ClaimableKind) {
	ctx := context.Background()

	outcome, err := f.claimService.Claim(ctx, c.GuildID, c.ChannelID, c.Author, kind)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"userID":  c.Author.UserID,
			"kind":    kind,
			"error":   err,
		}).Error("Claim failed")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Something went wrong with that claim. Please try again.")
		return
	}

	common.Reply(c.Session, c.ReplyChannel(), ClaimReply(outcome))
}

// ClaimReply is the chat response for a claim outcome
func ClaimReply(outcome *service.ClaimOutcome) string {
	switch outcome.Status {
	case service.ClaimStatusNoCollectible:
		if outcome.Kind == models.ClaimableKindClam {
			return "No clam to claim!"
		}
		return "No crate to claim!"
	case service.ClaimStatusWrongChannel:
		if outcome.Kind == models.ClaimableKindClam {
			return "The clam is clearly elsewhere. Claim it there!"
		}
		return "The crate is in a different channel. Claim it there!"
	default:
		if outcome.Kind == models.ClaimableKindClam {
			return fmt.Sprintf("%s claimed the clam, clearing the clog of clams to claim.", outcome.ClaimantName)
		}
		return fmt.Sprintf("%s claimed the crate. They got %s coins!", outcome.ClaimantName, common.FormatCount(outcome.Reward))
	}
}

func (f *Feature) handleScore(c *common.Command, kind models.ClaimableKind) {
	ctx := context.Background()

	score, err := f.scoreService.GetScore(ctx, c.Author.UserID, kind)
	if err != nil {
		log.WithFields(log.Fields{
			"userID": c.Author.UserID,
			"kind":   kind,
			"error":  err,
		}).Error("Failed to get score")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Unable to retrieve your score. Please try again.")
		return
	}

	common.Reply(c.Session, c.ReplyChannel(), ScoreReply(kind, score))
}

// ScoreReply is the chat response for a score lookup
func ScoreReply(kind models.ClaimableKind, score int64) string {
	if kind == models.ClaimableKindClam {
		return fmt.Sprintf("You've claimed **%s** clams!", common.FormatCount(score))
	}
	return fmt.Sprintf("You have **%s** coins!", common.FormatCount(score))
}

func (f *Feature) handleLeaderboard(c *common.Command, kind models.ClaimableKind) {
	ctx := context.Background()

	members, err := common.ListMembers(c.Session, c.Message.GuildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"error":   err,
		}).Error("Failed to list guild members for leaderboard")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Unable to load the leaderboard right now.")
		return
	}

	candidates := make([]int64, 0, len(members))
	names := make(map[int64]string, len(members))
	for _, member := range members {
		if member.User == nil || member.User.Bot {
			continue
		}
		id, err := common.ParseID(member.User.ID)
		if err != nil {
			continue
		}
		candidates = append(candidates, id)
		names[id] = common.DisplayName(member)
	}

	entries, err := f.scoreService.TopScores(ctx, kind, candidates, service.DefaultLeaderboardSize)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": c.GuildID,
			"kind":    kind,
			"error":   err,
		}).Error("Failed to load leaderboard")
		common.ReplyWithError(c.Session, c.ReplyChannel(), "Unable to load the leaderboard right now.")
		return
	}

	guildName := "Server"
	if guild, err := c.Session.State.Guild(c.Message.GuildID); err == nil && guild.Name != "" {
		guildName = guild.Name
	}

	common.ReplyWithEmbed(c.Session, c.ReplyChannel(), BuildLeaderboardEmbed(kind, guildName, entries, names))
}
