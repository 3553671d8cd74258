package bot

import (
	"context"
	"fmt"

	"nerdbot/bot/changelog"
	"nerdbot/bot/common"
	"nerdbot/bot/features/collectibles"
	"nerdbot/bot/features/moderation"
	"nerdbot/bot/features/reactions"
	"nerdbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	CommandPrefix            string
	ReactionRepliesPerMinute int
}

// Services are the application services the bot drives
type Services struct {
	Spawn      service.SpawnService
	Claim      service.ClaimService
	Score      service.ScoreService
	Guild      service.GuildService
	Moderation service.ModerationService
}

type Bot struct {
	config    Config
	session   *discordgo.Session
	guilds    service.GuildService
	changelog *changelog.Changelog

	spawner   messageSpawner
	reactions *reactions.Feature
	router    *router
}

// NewSession creates a discord session with the intents the bot relies on.
// It is not connected until Bot.Start.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent
	return dg, nil
}

func New(config Config, session *discordgo.Session, services Services, cl *changelog.Changelog) *Bot {
	collectiblesFeature := collectibles.New(services.Spawn, services.Claim, services.Score)
	moderationFeature := moderation.New(services.Moderation)

	bot := &Bot{
		config:    config,
		session:   session,
		guilds:    services.Guild,
		changelog: cl,
		spawner:   collectiblesFeature,
		reactions: reactions.New(services.Guild, config.ReactionRepliesPerMinute),
		router:    newRouter(config.CommandPrefix, collectiblesFeature.Commands(), moderationFeature.Commands()),
	}

	session.AddHandler(bot.handleReady)
	session.AddHandler(bot.handleGuildCreate)
	session.AddHandler(bot.handleGuildDelete)
	session.AddHandler(bot.handleMessageCreate)
	session.AddHandler(bot.handleReactionAdd)

	return bot
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	ctx := context.Background()

	guildIDs := make([]int64, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		id, err := common.ParseID(g.ID)
		if err != nil {
			log.WithError(err).Warn("Skipping guild with invalid ID")
			continue
		}
		guildIDs = append(guildIDs, id)
	}

	outdated, err := b.guilds.SyncGuilds(ctx, guildIDs, b.changelog.LatestVersion())
	if err != nil {
		log.WithError(err).Error("Failed to sync guilds on ready")
		return
	}

	log.WithFields(log.Fields{
		"user":     r.User.Username,
		"guilds":   len(guildIDs),
		"outdated": len(outdated),
	}).Info("Bot is ready")

	if latest := b.changelog.Latest(); latest != nil {
		for _, guildID := range outdated {
			b.announceChangelog(s, guildID, latest)
		}
	}
}

// announceChangelog posts to the guild's system channel when it has one
func (b *Bot) announceChangelog(s *discordgo.Session, guildID int64, entry *changelog.Entry) {
	guild, err := s.Guild(common.FormatID(guildID))
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"error":   err,
		}).Warn("Failed to fetch guild for changelog")
		return
	}
	if guild.SystemChannelID == "" {
		return
	}

	if _, err := s.ChannelMessageSend(guild.SystemChannelID, entry.Announcement()); err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"version": entry.Version,
			"error":   err,
		}).Warn("Failed to post changelog")
	}
}

func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildID, err := common.ParseID(g.ID)
	if err != nil {
		return
	}

	if _, err := b.guilds.HandleJoin(context.Background(), guildID); err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"error":   err,
		}).Error("Failed to record guild join")
	}
}

func (b *Bot) handleGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Outages also deliver GuildDelete, with Unavailable set
	if g.Unavailable {
		return
	}
	guildID, err := common.ParseID(g.ID)
	if err != nil {
		return
	}

	if err := b.guilds.HandleLeave(context.Background(), guildID); err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"error":   err,
		}).Error("Failed to record guild leave")
	}
}

// messageSpawner runs the spawn check for a guild message
type messageSpawner interface {
	HandleMessage(ctx context.Context, guildID, channelID int64)
}

func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	guildID, err := common.ParseID(m.GuildID)
	if err != nil {
		return
	}
	channelID, err := common.ParseID(m.ChannelID)
	if err != nil {
		return
	}

	// Commands count as chat too, so every message gets a spawn check
	b.router.dispatch(s, m, guildID, channelID)
	b.spawner.HandleMessage(context.Background(), guildID, channelID)
}

func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" || (s.State.User != nil && r.UserID == s.State.User.ID) {
		return
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		return
	}

	guildID, err := common.ParseID(r.GuildID)
	if err != nil {
		return
	}
	userID, err := common.ParseID(r.UserID)
	if err != nil {
		return
	}

	link, ok := b.reactions.Reply(context.Background(), guildID, userID, r.Emoji.Name)
	if !ok {
		return
	}
	common.Reply(s, r.ChannelID, link)
}
