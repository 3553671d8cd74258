package collectibles

import (
	"nerdbot/bot/common"
	"nerdbot/models"
	"nerdbot/service"
)

// Feature owns spawning, claiming and score commands
type Feature struct {
	spawnService service.SpawnService
	claimService service.ClaimService
	scoreService service.ScoreService
}

func New(spawnService service.SpawnService, claimService service.ClaimService, scoreService service.ScoreService) *Feature {
	return &Feature{
		spawnService: spawnService,
		claimService: claimService,
		scoreService: scoreService,
	}
}

// Commands maps command names to handlers
func (f *Feature) Commands() map[string]func(*common.Command) {
	return map[string]func(*common.Command){
		"claim":     func(c *common.Command) { f.handleClaim(c, models.ClaimableKindCoin) },
		"clam":      func(c *common.Command) { f.handleClaim(c, models.ClaimableKindClam) },
		"coins":     func(c *common.Command) { f.handleScore(c, models.ClaimableKindCoin) },
		"clams":     func(c *common.Command) { f.handleScore(c, models.ClaimableKindClam) },
		"highscore": func(c *common.Command) { f.handleLeaderboard(c, models.ClaimableKindCoin) },
		"clamscore": func(c *common.Command) { f.handleLeaderboard(c, models.ClaimableKindClam) },
	}
}
