// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	OpenAI  OpenAIConfig  `yaml:"openai" mapstructure:"openai"`
	Hunter  HunterConfig  `yaml:"hunter" mapstructure:"hunter"`
	Prompts PromptsConfig `yaml:"prompts" mapstructure:"prompts"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// OpenAIConfig holds the generative search settings.
type OpenAIConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// HunterConfig holds the hunter.io email finder/verifier settings.
type HunterConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec  float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	PollIntervalMS  int     `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollMaxAttempts int     `yaml:"poll_max_attempts" mapstructure:"poll_max_attempts"`
}

// PromptsConfig holds the per-role system prompts for generative search.
type PromptsConfig struct {
	GIS      string `yaml:"gis" mapstructure:"gis"`
	Mayor    string `yaml:"mayor" mapstructure:"mayor"`
	Assessor string `yaml:"assessor" mapstructure:"assessor"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig configures output file placement.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// promptJSONContract is shared by all role prompts: it pins the shape of the
// structured record the row enrichment engine parses out of the search reply.
const promptJSONContract = `Reply with ONLY a JSON object (no markdown fences) with the keys ` +
	`firstName, lastName, email, phoneNumber, role, sourceWebsite, emailType, govWebsite. ` +
	`emailType must be "person" for a personal mailbox or "department" otherwise. ` +
	`govWebsite is the bare domain of the government website (e.g. "examplecounty.gov"). ` +
	`If nothing is found, reply with exactly: None`

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OUTREACH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("openai.key", "")
	v.SetDefault("hunter.key", "")
	v.SetDefault("output.dir", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini-search-preview")
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("hunter.requests_per_sec", 5.0)
	v.SetDefault("hunter.poll_interval_ms", 500)
	v.SetDefault("hunter.poll_max_attempts", 5)
	v.SetDefault("store.path", "outreach.db")
	v.SetDefault("prompts.gis",
		"Find the current GIS Manager (or GIS Coordinator/Director) for the given local government. "+promptJSONContract)
	v.SetDefault("prompts.mayor",
		"Find the current Mayor or County Manager for the given local government. "+promptJSONContract)
	v.SetDefault("prompts.assessor",
		"Find the current Property Assessor (or Property Appraiser/Tax Assessor) for the given local government. "+promptJSONContract)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
