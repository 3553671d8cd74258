package reactions

import (
	"context"
	"sync"

	"nerdbot/service"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Feature replies to known emoji reactions with an image link
type Feature struct {
	guildService service.GuildService
	perMinute    int

	limiters     map[int64]*rate.Limiter
	limiterMutex sync.RWMutex
}

// New creates the feature allowing perMinute replies per guild; zero disables the cap
func New(guildService service.GuildService, perMinute int) *Feature {
	return &Feature{
		guildService: guildService,
		perMinute:    perMinute,
		limiters:     make(map[int64]*rate.Limiter),
	}
}

// Reply decides whether a reaction gets a reply and returns the link to post
func (f *Feature) Reply(ctx context.Context, guildID, userID int64, emojiName string) (string, bool) {
	link, ok := ImageFor(emojiName)
	if !ok {
		return "", false
	}

	allowed, err := f.guildService.RecordReactor(ctx, guildID, userID)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"userID":  userID,
			"error":   err,
		}).Error("Failed to record reactor")
		return "", false
	}
	if !allowed {
		return "", false
	}

	if !f.getLimiter(guildID).Allow() {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"emoji":   emojiName,
		}).Debug("Reaction reply rate limited")
		return "", false
	}

	return link, true
}

func (f *Feature) getLimiter(guildID int64) *rate.Limiter {
	f.limiterMutex.RLock()
	limiter, exists := f.limiters[guildID]
	f.limiterMutex.RUnlock()

	if !exists {
		f.limiterMutex.Lock()
		limiter, exists = f.limiters[guildID]
		if !exists {
			limiter = f.newLimiter()
			f.limiters[guildID] = limiter
		}
		f.limiterMutex.Unlock()
	}

	return limiter
}

func (f *Feature) newLimiter() *rate.Limiter {
	if f.perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(f.perMinute)/60), f.perMinute)
}
