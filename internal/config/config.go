package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// SlackBotToken authenticates the bot against the Slack Web API. Needs the
	// channels:read, channels:history, users:read and chat:write scopes.
	SlackBotToken string `envconfig:"RC_SLACK_BOT_TOKEN"`

	// Channel is the channel whose members are paired, "#" included.
	Channel string `envconfig:"RC_CHANNEL" default:"#randomcoffees"`

	// TestingChannel receives the announcement in testing mode so real
	// members are not pinged.
	TestingChannel string `envconfig:"RC_TESTING_CHANNEL" default:"#bot_testing"`

	// Testing switches member rendering to the silent "@name" form and
	// redirects the announcement to TestingChannel.
	Testing bool `envconfig:"RC_TESTING" default:"false"`

	// Lookback is how far back channel history is read to reconstruct prior
	// pairings. Four weeks covers a weekly schedule with margin.
	Lookback time.Duration `envconfig:"RC_LOOKBACK" default:"672h"`

	// Schedule is a cron expression ("0 9 * * MON") or "@every" spec. Empty
	// means run one pairing round and exit.
	Schedule string `envconfig:"RC_SCHEDULE"`

	// SlackRPS caps Slack Web API calls per second. The paginated methods the
	// bot uses are Tier 3 (~50/min), so the default stays under that.
	SlackRPS float64 `envconfig:"RC_SLACK_RPS" default:"0.8"`

	// HealthAddr is the listen address of the health endpoint, served only in
	// scheduled mode.
	HealthAddr string `envconfig:"RC_HEALTH_ADDR" default:":8080"`

	LogLevel  string `envconfig:"RC_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"RC_LOG_FORMAT" default:"json"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.SlackBotToken == "" {
		return errors.New("RC_SLACK_BOT_TOKEN is required")
	}
	if !strings.HasPrefix(c.Channel, "#") {
		return fmt.Errorf("RC_CHANNEL must start with '#', got %q", c.Channel)
	}
	if !strings.HasPrefix(c.TestingChannel, "#") {
		return fmt.Errorf("RC_TESTING_CHANNEL must start with '#', got %q", c.TestingChannel)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("RC_LOOKBACK must be positive, got %s", c.Lookback)
	}
	if c.SlackRPS <= 0 {
		return fmt.Errorf("RC_SLACK_RPS must be positive, got %g", c.SlackRPS)
	}
	return nil
}

// PostTo returns the channel announcements are posted to: the testing channel
// in testing mode, the pairing channel otherwise.
func (c *Config) PostTo() string {
	if c.Testing {
		return c.TestingChannel
	}
	return c.Channel
}

// MentionMembers reports whether members should be rendered in the notifying
// mention form. Testing mode uses the silent display form instead.
func (c *Config) MentionMembers() bool {
	return !c.Testing
}
