package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken  string
	CommandPrefix string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Claimable configuration
	SpawnCooldown     time.Duration // Minimum time since the last claim before another of the same kind spawns
	SpawnRollRange    int           // Each eligible kind draws a number in [1, SpawnRollRange]
	CoinSpawnSentinel int           // Roll value that spawns a coin crate
	ClamSpawnSentinel int           // Roll value that spawns a clam
	CoinRewardMin     int64
	CoinRewardMax     int64
	StartingCoins     int64 // Coin balance granted when a user record is first created

	// Reaction replies
	ReactionRepliesPerMinute int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine; the real environment wins either way
	_ = godotenv.Load()

	config := &Config{
		// Discord
		DiscordToken:  os.Getenv("DISCORD_TOKEN"),
		CommandPrefix: getEnvWithDefault("COMMAND_PREFIX", "!"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Claimable settings with defaults
		SpawnCooldown:     900 * time.Second,
		SpawnRollRange:    20,
		CoinSpawnSentinel: 1,
		ClamSpawnSentinel: 2,
		CoinRewardMin:     10,
		CoinRewardMax:     30,
		StartingCoins:     10,

		ReactionRepliesPerMinute: 6,

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	var overrideErrs *multierror.Error
	cooldownSeconds := int(config.SpawnCooldown / time.Second)
	overrideErrs = multierror.Append(overrideErrs, overrideInt("SPAWN_COOLDOWN_SECONDS", &cooldownSeconds))
	if cooldownSeconds < 0 {
		overrideErrs = multierror.Append(overrideErrs, fmt.Errorf("SPAWN_COOLDOWN_SECONDS cannot be negative, got %d", cooldownSeconds))
	}
	config.SpawnCooldown = time.Duration(cooldownSeconds) * time.Second
	overrideErrs = multierror.Append(overrideErrs,
		overrideInt("SPAWN_ROLL_RANGE", &config.SpawnRollRange),
		overrideInt("COIN_SPAWN_SENTINEL", &config.CoinSpawnSentinel),
		overrideInt("CLAM_SPAWN_SENTINEL", &config.ClamSpawnSentinel),
		overrideInt("REACTION_REPLIES_PER_MINUTE", &config.ReactionRepliesPerMinute),
		overrideInt64("COIN_REWARD_MIN", &config.CoinRewardMin),
		overrideInt64("COIN_REWARD_MAX", &config.CoinRewardMax),
		overrideInt64("STARTING_COINS", &config.StartingCoins),
	)
	if err := overrideErrs.ErrorOrNil(); err != nil {
		return nil, err
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validateClaimables(); err != nil {
		return nil, err
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// validateClaimables checks the spawn and reward settings for consistency
func (c *Config) validateClaimables() error {
	if c.SpawnRollRange < 1 {
		return fmt.Errorf("SPAWN_ROLL_RANGE must be at least 1, got %d", c.SpawnRollRange)
	}
	for name, sentinel := range map[string]int{
		"COIN_SPAWN_SENTINEL": c.CoinSpawnSentinel,
		"CLAM_SPAWN_SENTINEL": c.ClamSpawnSentinel,
	} {
		if sentinel < 1 || sentinel > c.SpawnRollRange {
			return fmt.Errorf("%s must be within [1, %d], got %d", name, c.SpawnRollRange, sentinel)
		}
	}
	if c.CoinSpawnSentinel == c.ClamSpawnSentinel {
		return fmt.Errorf("COIN_SPAWN_SENTINEL and CLAM_SPAWN_SENTINEL must differ")
	}
	if c.CoinRewardMin < 0 || c.CoinRewardMax < c.CoinRewardMin {
		return fmt.Errorf("invalid coin reward range [%d, %d]", c.CoinRewardMin, c.CoinRewardMax)
	}
	if c.StartingCoins < 0 {
		return fmt.Errorf("STARTING_COINS cannot be negative")
	}
	return nil
}

// IsProduction reports whether the bot runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// overrideInt replaces target when key is set and rejects values that are not integers
func overrideInt(key string, target *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	*target = parsed
	return nil
}

func overrideInt64(key string, target *int64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	*target = parsed
	return nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		CommandPrefix:            "!",
		SpawnCooldown:            900 * time.Second,
		SpawnRollRange:           20,
		CoinSpawnSentinel:        1,
		ClamSpawnSentinel:        2,
		CoinRewardMin:            10,
		CoinRewardMax:            30,
		StartingCoins:            10,
		ReactionRepliesPerMinute: 6,
		LogLevel:                 "debug",
	}
}
