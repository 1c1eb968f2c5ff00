package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Lexicons LexiconsConfig
	Learning LearningConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// ResponseTTLSec bounds how long a classified answer may be served
	// from cache before being regenerated.
	ResponseTTLSec int
}

type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type LexiconsConfig struct {
	Dir     string
	Rosters []RosterConfig
}

// RosterConfig points at a saved roster or squad page whose scraped node
// text is merged into a domain lexicon at startup.
type RosterConfig struct {
	Domain   string
	Path     string
	Selector string
}

// LearningConfig gathers every tunable threshold used by the insight
// generator and pattern suggester, so tuning never touches the algorithms.
type LearningConfig struct {
	WindowDays             int
	LowConfidenceThreshold float64
	PatternGapMinCount     int
	PatternGapMediumCount  int
	PatternGapHighCount    int
	EntityMissMinCount     int
	LowConfidenceMinCount  int
	LowConfidenceHighCount int
	NegativeMinCount       int
	SuggestSampleLimit     int
	SuggestMinSample       int
	SuggestWordFrequency   float64
	SuggestMaxWords        int
	CacheTTLSec            int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/sportsiq")

	viper.SetEnvPrefix("SPORTSIQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/sportsiq.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.responseTTLSec", 300)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.maxTokens", 256)
	viper.SetDefault("llm.timeoutSec", 8)

	viper.SetDefault("lexicons.dir", "./configs/lexicons")

	viper.SetDefault("learning.windowDays", 7)
	viper.SetDefault("learning.lowConfidenceThreshold", 0.6)
	viper.SetDefault("learning.patternGapMinCount", 3)
	viper.SetDefault("learning.patternGapMediumCount", 5)
	viper.SetDefault("learning.patternGapHighCount", 10)
	viper.SetDefault("learning.entityMissMinCount", 3)
	viper.SetDefault("learning.lowConfidenceMinCount", 5)
	viper.SetDefault("learning.lowConfidenceHighCount", 20)
	viper.SetDefault("learning.negativeMinCount", 3)
	viper.SetDefault("learning.suggestSampleLimit", 50)
	viper.SetDefault("learning.suggestMinSample", 4)
	viper.SetDefault("learning.suggestWordFrequency", 0.3)
	viper.SetDefault("learning.suggestMaxWords", 5)
	viper.SetDefault("learning.cacheTTLSec", 600)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
