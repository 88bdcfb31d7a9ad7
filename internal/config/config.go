package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// ActivityLogConfig controls the SQLite generation-activity log. Ephemeral
// mode keeps nothing on disk and is the default; generated plans and media
// are never persisted, only the timeline of generation events.
type ActivityLogConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

type LLMConfig struct {
	Mode        string  `yaml:"mode"` // mock, openai, http
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// SpeechConfig configures the built-in synthesizer and the premium client.
// The built-in backend returns raw PCM and enforces a request-size ceiling,
// hence chunk_size.
type SpeechConfig struct {
	Mode          string              `yaml:"mode"` // mock, http, exec
	Endpoint      string              `yaml:"endpoint"`
	APIKey        string              `yaml:"api_key"`
	Model         string              `yaml:"model"`
	Command       string              `yaml:"command"`
	SampleRate    int                 `yaml:"sample_rate"`
	Channels      int                 `yaml:"channels"`
	ChunkSize     int                 `yaml:"chunk_size"`
	MaxConcurrent int                 `yaml:"max_concurrent"`
	CatalogPath   string              `yaml:"catalog_path"`
	Premium       PremiumSpeechConfig `yaml:"premium"`
}

type PremiumSpeechConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Endpoint        string  `yaml:"endpoint"`
	APIKey          string  `yaml:"api_key"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
}

type ImageConfig struct {
	Mode     string `yaml:"mode"` // mock, http
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type PlannerConfig struct {
	DefaultStyle string `yaml:"default_style"`
	DefaultRatio string `yaml:"default_ratio"`
	DefaultVoice string `yaml:"default_voice"`
}

type ChatConfig struct {
	Enabled        bool `yaml:"enabled"`
	ThinkingBudget int  `yaml:"thinking_budget"`
}

type Config struct {
	RuntimeName string            `yaml:"runtime_name"`
	Environment string            `yaml:"environment"`
	HTTP        HTTPConfig        `yaml:"http"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bus         BusConfig         `yaml:"bus"`
	ActivityLog ActivityLogConfig `yaml:"activity_log"`
	LLM         LLMConfig         `yaml:"llm"`
	Speech      SpeechConfig      `yaml:"speech"`
	Image       ImageConfig       `yaml:"image"`
	Planner     PlannerConfig     `yaml:"planner"`
	Chat        ChatConfig        `yaml:"chat"`
}

func Default() Config {
	return Config{
		RuntimeName: "vidplan-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPEndpoint:   "",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		ActivityLog: ActivityLogConfig{
			Path:          "./data/vidplan-activity.db",
			RetentionMode: "ephemeral",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		LLM: LLMConfig{
			Mode:        "mock",
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Speech: SpeechConfig{
			Mode:          "mock",
			SampleRate:    24000,
			Channels:      1,
			ChunkSize:     2000,
			MaxConcurrent: 4,
			Premium: PremiumSpeechConfig{
				Enabled:         false,
				Endpoint:        "https://api.elevenlabs.io",
				ModelID:         "eleven_multilingual_v2",
				Stability:       0.5,
				SimilarityBoost: 0.75,
			},
		},
		Image: ImageConfig{
			Mode:  "mock",
			Model: "imagen-4.0-generate-001",
		},
		Planner: PlannerConfig{
			DefaultStyle: "Cinematic Documentary",
			DefaultRatio: "16:9",
			DefaultVoice: "Professional Narrator",
		},
		Chat: ChatConfig{
			Enabled:        true,
			ThinkingBudget: 2048,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VIDPLAN_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VIDPLAN_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VIDPLAN_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VIDPLAN_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VIDPLAN_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VIDPLAN_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VIDPLAN_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VIDPLAN_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Embedded, "VIDPLAN_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VIDPLAN_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VIDPLAN_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VIDPLAN_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VIDPLAN_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VIDPLAN_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VIDPLAN_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VIDPLAN_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.ActivityLog.Path, "VIDPLAN_ACTIVITY_LOG_PATH")
	overrideString(&cfg.ActivityLog.RetentionMode, "VIDPLAN_ACTIVITY_LOG_RETENTION_MODE")
	overrideInt(&cfg.ActivityLog.RetentionDays, "VIDPLAN_ACTIVITY_LOG_RETENTION_DAYS")
	overrideInt(&cfg.ActivityLog.MaxSessions, "VIDPLAN_ACTIVITY_LOG_MAX_SESSIONS")
	overrideBool(&cfg.ActivityLog.VacuumOnStart, "VIDPLAN_ACTIVITY_LOG_VACUUM_ON_START")
	overrideString(&cfg.LLM.Mode, "VIDPLAN_LLM_MODE")
	overrideString(&cfg.LLM.Endpoint, "VIDPLAN_LLM_ENDPOINT")
	overrideString(&cfg.LLM.APIKey, "VIDPLAN_LLM_API_KEY")
	overrideString(&cfg.LLM.Model, "VIDPLAN_LLM_MODEL")
	overrideInt(&cfg.LLM.MaxTokens, "VIDPLAN_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "VIDPLAN_LLM_TEMPERATURE")
	overrideString(&cfg.Speech.Mode, "VIDPLAN_SPEECH_MODE")
	overrideString(&cfg.Speech.Endpoint, "VIDPLAN_SPEECH_ENDPOINT")
	overrideString(&cfg.Speech.APIKey, "VIDPLAN_SPEECH_API_KEY")
	overrideString(&cfg.Speech.Model, "VIDPLAN_SPEECH_MODEL")
	overrideString(&cfg.Speech.Command, "VIDPLAN_SPEECH_COMMAND")
	overrideInt(&cfg.Speech.SampleRate, "VIDPLAN_SPEECH_SAMPLE_RATE")
	overrideInt(&cfg.Speech.Channels, "VIDPLAN_SPEECH_CHANNELS")
	overrideInt(&cfg.Speech.ChunkSize, "VIDPLAN_SPEECH_CHUNK_SIZE")
	overrideInt(&cfg.Speech.MaxConcurrent, "VIDPLAN_SPEECH_MAX_CONCURRENT")
	overrideString(&cfg.Speech.CatalogPath, "VIDPLAN_SPEECH_CATALOG_PATH")
	overrideBool(&cfg.Speech.Premium.Enabled, "VIDPLAN_SPEECH_PREMIUM_ENABLED")
	overrideString(&cfg.Speech.Premium.Endpoint, "VIDPLAN_SPEECH_PREMIUM_ENDPOINT")
	overrideString(&cfg.Speech.Premium.APIKey, "VIDPLAN_SPEECH_PREMIUM_API_KEY")
	overrideString(&cfg.Speech.Premium.ModelID, "VIDPLAN_SPEECH_PREMIUM_MODEL_ID")
	overrideFloat(&cfg.Speech.Premium.Stability, "VIDPLAN_SPEECH_PREMIUM_STABILITY")
	overrideFloat(&cfg.Speech.Premium.SimilarityBoost, "VIDPLAN_SPEECH_PREMIUM_SIMILARITY_BOOST")
	overrideString(&cfg.Image.Mode, "VIDPLAN_IMAGE_MODE")
	overrideString(&cfg.Image.Endpoint, "VIDPLAN_IMAGE_ENDPOINT")
	overrideString(&cfg.Image.APIKey, "VIDPLAN_IMAGE_API_KEY")
	overrideString(&cfg.Image.Model, "VIDPLAN_IMAGE_MODEL")
	overrideString(&cfg.Planner.DefaultStyle, "VIDPLAN_PLANNER_DEFAULT_STYLE")
	overrideString(&cfg.Planner.DefaultRatio, "VIDPLAN_PLANNER_DEFAULT_RATIO")
	overrideString(&cfg.Planner.DefaultVoice, "VIDPLAN_PLANNER_DEFAULT_VOICE")
	overrideBool(&cfg.Chat.Enabled, "VIDPLAN_CHAT_ENABLED")
	overrideInt(&cfg.Chat.ThinkingBudget, "VIDPLAN_CHAT_THINKING_BUDGET")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Bus.Embedded {
		if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
			return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
		}
	} else {
		if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	switch cfg.ActivityLog.RetentionMode {
	case "ephemeral", "session", "persistent":
		// ok
	default:
		return errors.New("activity_log.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.ActivityLog.RetentionMode != "ephemeral" && cfg.ActivityLog.Path == "" {
		return errors.New("activity_log.path must not be empty")
	}
	if cfg.ActivityLog.RetentionDays < 0 {
		return errors.New("activity_log.retention_days must be >= 0")
	}
	switch cfg.LLM.Mode {
	case "mock", "openai", "http":
	default:
		return errors.New("llm.mode must be one of mock|openai|http")
	}
	if cfg.LLM.Mode == "openai" && cfg.LLM.APIKey == "" {
		return errors.New("llm.api_key must be set when mode=openai")
	}
	if cfg.LLM.Mode == "http" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=http")
	}
	if cfg.LLM.MaxTokens < 0 {
		return errors.New("llm.max_tokens must be >= 0")
	}
	switch cfg.Speech.Mode {
	case "mock", "http", "exec":
	default:
		return errors.New("speech.mode must be one of mock|http|exec")
	}
	if cfg.Speech.Mode == "http" && cfg.Speech.Endpoint == "" {
		return errors.New("speech.endpoint must be set when mode=http")
	}
	if cfg.Speech.Mode == "exec" && cfg.Speech.Command == "" {
		return errors.New("speech.command must be set when mode=exec")
	}
	if cfg.Speech.SampleRate <= 0 {
		return errors.New("speech.sample_rate must be positive")
	}
	if cfg.Speech.Channels <= 0 {
		return errors.New("speech.channels must be positive")
	}
	if cfg.Speech.ChunkSize <= 0 {
		return errors.New("speech.chunk_size must be positive")
	}
	if cfg.Speech.MaxConcurrent <= 0 {
		return errors.New("speech.max_concurrent must be >= 1")
	}
	if cfg.Speech.Premium.Enabled {
		if cfg.Speech.Premium.Endpoint == "" {
			return errors.New("speech.premium.endpoint must be set when premium is enabled")
		}
		if cfg.Speech.Premium.APIKey == "" {
			return errors.New("speech.premium.api_key must be set when premium is enabled")
		}
	}
	switch cfg.Image.Mode {
	case "mock", "http":
	default:
		return errors.New("image.mode must be one of mock|http")
	}
	if cfg.Image.Mode == "http" && cfg.Image.Endpoint == "" {
		return errors.New("image.endpoint must be set when mode=http")
	}
	switch cfg.Planner.DefaultRatio {
	case "16:9", "9:16":
	default:
		return errors.New("planner.default_ratio must be 16:9 or 9:16")
	}
	if cfg.Chat.ThinkingBudget < 0 {
		return errors.New("chat.thinking_budget must be >= 0")
	}
	return nil
}
