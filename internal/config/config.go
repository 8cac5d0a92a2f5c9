package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"terabox-relay-bot/internal/logger"
	"terabox-relay-bot/internal/util"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Mtproto  MtprotoConfig  `yaml:"mtproto"`
	Aria2    Aria2Config    `yaml:"aria2"`
	Resolver ResolverConfig `yaml:"resolver"`
	Access   AccessConfig   `yaml:"access"`
	Web      WebConfig      `yaml:"web"`
}

type BotConfig struct {
	Token string `yaml:"token"`
	Proxy string `yaml:"proxy"`

	// RelayChatID is the dump chat files are uploaded to before being
	// copied to the requester.
	RelayChatID int64 `yaml:"relay_chat_id"`

	// Progress edits are throttled to one per EditInterval.
	EditInterval time.Duration `yaml:"edit_interval"`

	// SplitSize/UserSplitSize are the per-file upload ceilings for the
	// bot and user identities. Both accept "2G"-style values.
	SplitSize     string `yaml:"split_size"`
	UserSplitSize string `yaml:"user_split_size"`

	SplitSizeBytes     int64 `yaml:"-"`
	UserSplitSizeBytes int64 `yaml:"-"`
}

type MtprotoConfig struct {
	// Optional user-account credentials. When present the bot uploads
	// through the user session, which raises the split threshold.
	SessionFile string `yaml:"session_file"`
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	Phone       string `yaml:"phone"`
	Proxy       string `yaml:"proxy"`
}

type Aria2Config struct {
	RPCURL      string        `yaml:"rpc_url"`
	Secret      string        `yaml:"secret"`
	DownloadDir string        `yaml:"download_dir"`
	PollEvery   time.Duration `yaml:"poll_every"`

	// MetadataTimeout bounds how long a job may run without the daemon
	// reporting a total size before the fetch is abandoned.
	MetadataTimeout time.Duration `yaml:"metadata_timeout"`
}

type ResolverConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AccessConfig struct {
	// ChannelID is the channel the requester must be a member of.
	ChannelID int64 `yaml:"channel_id"`
	// JoinURL is shown to users who are not members yet.
	JoinURL string `yaml:"join_url"`
	// DeveloperURL is an optional contact button on the greeting.
	DeveloperURL string `yaml:"developer_url"`
	// OnLookupError decides what happens when the membership lookup
	// itself fails: "allow" or "deny".
	OnLookupError string `yaml:"on_lookup_error"`
}

type WebConfig struct {
	// Addr for the keep-alive HTTP server, e.g. ":5000". Empty disables it.
	Addr string `yaml:"addr"`
}

const (
	// Upload ceilings of the two identities: Telegram's 2 GiB bot and
	// 4 GiB premium-user limits, minus headroom for container overhead.
	defaultBotSplitSize  = 2093796556
	defaultUserSplitSize = 4241280205
)

func ParseConfig() (*Config, error) {
	var configFile string
	flag.StringVar(&configFile, "config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	// load environment variables from .env file
	if err := godotenv.Load(); err == nil {
		logger.Info.Println("loaded environment variables from .env file")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	// expand ${VAR} references before parsing so secrets can stay in the
	// environment
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml failed: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Bot.Validate(); err != nil {
		return fmt.Errorf("bot config invalid: %w", err)
	}
	if err := c.Mtproto.Validate(); err != nil {
		return fmt.Errorf("mtproto config invalid: %w", err)
	}
	if err := c.Aria2.Validate(); err != nil {
		return fmt.Errorf("aria2 config invalid: %w", err)
	}
	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver config invalid: %w", err)
	}
	if err := c.Access.Validate(); err != nil {
		return fmt.Errorf("access config invalid: %w", err)
	}
	return nil
}

func (c *BotConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("bot.token is required (get from @BotFather)")
	}
	if c.RelayChatID == 0 {
		return fmt.Errorf("relay_chat_id is required")
	}
	if c.EditInterval <= 0 {
		c.EditInterval = 15 * time.Second
	}

	c.SplitSizeBytes = defaultBotSplitSize
	if c.SplitSize != "" {
		size, err := util.ParseSize(c.SplitSize)
		if err != nil {
			return fmt.Errorf("invalid bot.split_size: %w", err)
		}
		c.SplitSizeBytes = size
	}
	c.UserSplitSizeBytes = defaultUserSplitSize
	if c.UserSplitSize != "" {
		size, err := util.ParseSize(c.UserSplitSize)
		if err != nil {
			return fmt.Errorf("invalid bot.user_split_size: %w", err)
		}
		c.UserSplitSizeBytes = size
	}
	return nil
}

// Enabled reports whether an elevated upload identity is configured at all.
func (c *MtprotoConfig) Enabled() bool {
	return c.SessionFile != ""
}

func (c *MtprotoConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.APIID == 0 {
		return fmt.Errorf("api_id is required (get from https://my.telegram.org/apps)")
	}
	if c.APIHash == "" {
		return fmt.Errorf("api_hash is required (get from https://my.telegram.org/apps)")
	}

	// phone is optional: if the session file does not exist, it must be
	// provided for the first-time login
	if c.Phone == "" {
		if _, err := os.Stat(c.SessionFile); os.IsNotExist(err) {
			return fmt.Errorf("phone is required for first-time authentication (session file not found: %s)", c.SessionFile)
		}
	}
	return nil
}

func (c *Aria2Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required (e.g. http://localhost:6800/jsonrpc)")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download_dir is required")
	}
	if c.PollEvery <= 0 {
		c.PollEvery = 5 * time.Second
	}
	if c.MetadataTimeout <= 0 {
		c.MetadataTimeout = 5 * time.Minute
	}

	if _, err := os.Stat(c.DownloadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DownloadDir, 0o755); err != nil {
			return fmt.Errorf("failed to create download_dir: %w", err)
		}
	}
	return nil
}

func (c *ResolverConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

func (c *AccessConfig) Validate() error {
	if c.ChannelID == 0 {
		return fmt.Errorf("channel_id is required")
	}
	switch c.OnLookupError {
	case "":
		c.OnLookupError = "deny"
	case "allow", "deny":
	default:
		return fmt.Errorf("on_lookup_error must be \"allow\" or \"deny\", got %q", c.OnLookupError)
	}
	return nil
}
