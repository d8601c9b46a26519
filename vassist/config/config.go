package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/virtual-assistant/vassist"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Assistant AssistantConfig `mapstructure:"assistant"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Video     VideoConfig     `mapstructure:"video"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// AssistantConfig stores model selection and persona settings.
type AssistantConfig struct {
	ChatModel       string `mapstructure:"chat_model"`       // streaming chat turns
	DecisionModel   string `mapstructure:"decision_model"`   // tool-selection call
	StructuredModel string `mapstructure:"structured_model"` // schema-constrained generation
	ImageModel      string `mapstructure:"image_model"`      // inline image generation
	VideoModel      string `mapstructure:"video_model"`      // video job submission
	SpeechModel     string `mapstructure:"speech_model"`     // text-to-speech synthesis
	Language        string `mapstructure:"language"`         // BCP-47 output language constraint
	Persona         string `mapstructure:"persona"`          // system instruction prefix
	EnableTracing   bool   `mapstructure:"enable_tracing"`
}

// SpeechConfig stores recognizer and synthesizer settings.
type SpeechConfig struct {
	Language        string `mapstructure:"language"`  // recognition language
	Continuous      bool   `mapstructure:"continuous"`
	InterimResults  bool   `mapstructure:"interim_results"`
	PreferredGender string `mapstructure:"preferred_gender"` // voice preference, "" disables
	CacheCapacity   int    `mapstructure:"cache_capacity"`   // synthesized-audio LRU entries
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds"`
}

// VideoConfig stores long-running video job settings.
type VideoConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`   // fixed cadence, no backoff
	StatusInterval time.Duration `mapstructure:"status_interval"` // presentational rotation only
	AspectRatio    string        `mapstructure:"aspect_ratio"`    // 16:9 | 9:16 | 1:1
	Resolution     string        `mapstructure:"resolution"`      // 720p | 1080p
}

// LimitsConfig stores remote-call throttling settings.
type LimitsConfig struct {
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"`
}

// ScheduleConfig stores content-planner settings for the scheduling variant.
type ScheduleConfig struct {
	Platforms []string `mapstructure:"platforms"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Assistant defaults
	viper.SetDefault("assistant.chat_model", "gemini-2.5-flash")
	viper.SetDefault("assistant.decision_model", "gemini-2.5-flash")
	viper.SetDefault("assistant.structured_model", "gemini-2.5-flash")
	viper.SetDefault("assistant.image_model", "gemini-2.5-flash-image")
	viper.SetDefault("assistant.video_model", "veo-3.1-generate-preview")
	viper.SetDefault("assistant.speech_model", "gemini-2.5-flash-preview-tts")
	viper.SetDefault("assistant.language", internal.DefaultLanguage)
	viper.SetDefault("assistant.persona", "You are a capable, friendly personal assistant.")
	viper.SetDefault("assistant.enable_tracing", true)

	// Speech defaults
	viper.SetDefault("speech.language", internal.DefaultLanguage)
	viper.SetDefault("speech.continuous", true)
	viper.SetDefault("speech.interim_results", true)
	viper.SetDefault("speech.preferred_gender", "female")
	viper.SetDefault("speech.cache_capacity", 64)
	viper.SetDefault("speech.cache_ttl_seconds", 600)

	// Video defaults: poll every 10s, rotate status text every 3s, no
	// overall timeout.
	viper.SetDefault("video.poll_interval", "10s")
	viper.SetDefault("video.status_interval", "3s")
	viper.SetDefault("video.aspect_ratio", "16:9")
	viper.SetDefault("video.resolution", "720p")

	// Limits defaults
	viper.SetDefault("limits.rate_limit_enabled", true)
	viper.SetDefault("limits.rate_limit_capacity", 10)
	viper.SetDefault("limits.rate_limit_refill_rate", "1s")

	// Schedule defaults
	viper.SetDefault("schedule.platforms", []string{"instagram", "x", "linkedin"})

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

// WatchConfig re-unmarshals the active config file on change and invokes
// onChange with the fresh value. Only presentation-safe knobs should be read
// from live reloads; model selection is fixed for the process lifetime.
func WatchConfig(onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		var fresh Config
		if err := viper.Unmarshal(&fresh); err != nil {
			return
		}
		AppConfig = fresh
		if onChange != nil {
			onChange(&AppConfig)
		}
	})
	viper.WatchConfig()
}
