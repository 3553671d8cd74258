package collectibles

import (
	"fmt"
	"strings"

	"nerdbot/bot/common"
	"nerdbot/models"

	"github.com/bwmarrin/discordgo"
)

const (
	crateImageURL = "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5f/Wooden_crate.jpg/640px-Wooden_crate.jpg"
	clamImageURL  = "https://upload.wikimedia.org/wikipedia/commons/thumb/a/ad/Clams_on_Sandy_Hook_beaches_-_panoramio.jpg/800px-Clams_on_Sandy_Hook_beaches_-_panoramio.jpg"

	colorAvailable = 0xF1C40F
	colorClaimed   = 0x95A5A6
)

// ClaimCommand returns the command that claims kind
func ClaimCommand(kind models.ClaimableKind) string {
	if kind == models.ClaimableKindClam {
		return "clam"
	}
	return "claim"
}

func imageFor(kind models.ClaimableKind) string {
	if kind == models.ClaimableKindClam {
		return clamImageURL
	}
	return crateImageURL
}

// BuildSpawnEmbed announces a freshly spawned collectible
func BuildSpawnEmbed(kind models.ClaimableKind, prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("A %s appeared!", kind.DisplayName()),
		Description: fmt.Sprintf("Type `%s%s` to claim it.", prefix, ClaimCommand(kind)),
		Color:       colorAvailable,
		Image:       &discordgo.MessageEmbedImage{URL: imageFor(kind)},
	}
}

// BuildClaimedEmbed replaces the spawn announcement once someone claimed it
func BuildClaimedEmbed(kind models.ClaimableKind, claimantName string, reward int64) *discordgo.MessageEmbed {
	description := fmt.Sprintf("**%s** claimed this %s.", claimantName, kind.DisplayName())
	if kind == models.ClaimableKindCoin {
		description = fmt.Sprintf("**%s** claimed this crate and found **%s** coins.", claimantName, common.FormatCount(reward))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("The %s is gone", kind.DisplayName()),
		Description: description,
		Color:       colorClaimed,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: imageFor(kind)},
	}
}

// BuildLeaderboardEmbed renders ranked entries with resolved display names
func BuildLeaderboardEmbed(kind models.ClaimableKind, guildName string, entries []*models.ScoreboardEntry, names map[int64]string) *discordgo.MessageEmbed {
	title := fmt.Sprintf("🏆 %s coin leaderboard", guildName)
	unit := "coins"
	if kind == models.ClaimableKindClam {
		title = fmt.Sprintf("🐚 %s clam leaderboard", guildName)
		unit = "clams"
	}

	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString("Nobody has any yet. Keep chatting!")
	}
	for _, entry := range entries {
		name, ok := names[entry.DiscordID]
		if !ok {
			name = common.Mention(entry.DiscordID)
		}
		fmt.Fprintf(&b, "%s %s: **%s** %s\n", rankMarker(entry.Rank), name, common.FormatCount(entry.Score), unit)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: strings.TrimRight(b.String(), "\n"),
		Color:       colorAvailable,
	}
}

func rankMarker(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("`#%d`", rank)
	}
}
