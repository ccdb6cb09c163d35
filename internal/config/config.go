package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Ark       ArkConfig
	BotStore  BotStoreConfig
	RateLimit RateLimitConfig
}

// Load builds the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	ark, err := loadArkConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadBotStoreConfig()
	if err != nil {
		return nil, err
	}

	rate, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Upstream:  upstream,
		Ark:       ark,
		BotStore:  store,
		RateLimit: rate,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UpstreamConfig describes the inference provider the relay forwards to.
// The credential and model are deployment-wide; the widget's bot identifier
// never selects a model.
type UpstreamConfig struct {
	Provider string
	Token    string
	Model    string
	BaseURL  string
	Stream   bool
	Timeout  time.Duration
}

// Upstream provider selection values.
const (
	ProviderHuggingFace = "huggingface"
	ProviderArk         = "ark"
)

// Enabled reports whether the Hugging Face credential is present.
func (c UpstreamConfig) Enabled() bool {
	return c.Token != "" && c.Model != ""
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("UPSTREAM_PROVIDER", ProviderHuggingFace))
	switch provider {
	case ProviderHuggingFace, ProviderArk:
	default:
		return UpstreamConfig{}, fmt.Errorf("invalid UPSTREAM_PROVIDER value: %q", provider)
	}

	stream, err := parseBoolEnv("UPSTREAM_STREAM", false)
	if err != nil {
		return UpstreamConfig{}, err
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT_SECONDS"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return UpstreamConfig{}, fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be at least 1, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return UpstreamConfig{
		Provider: provider,
		Token:    strings.TrimSpace(os.Getenv("HF_TOKEN")),
		Model:    getEnvOrDefault("HF_MODEL", "Qwen/Qwen3-4B-Thinking-2507"),
		BaseURL:  getEnvOrDefault("HF_BASE_URL", "https://api-inference.huggingface.co"),
		Stream:   stream,
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// ArkConfig describes the optional Ark-backed provider.
type ArkConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether the Ark credentials are present.
func (c ArkConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel creates an Ark-backed chat model from this configuration.
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadArkConfig() (ArkConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ArkConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ArkConfig{}, err
	}

	return ArkConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// BotStoreConfig selects where bot configuration records are read from.
type BotStoreConfig struct {
	Driver   string
	RedisURL string
	RedisTTL time.Duration
}

// Bot store driver values.
const (
	BotStoreMemory = "memory"
	BotStoreRedis  = "redis"
)

func loadBotStoreConfig() (BotStoreConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("BOT_STORE", BotStoreMemory))
	switch driver {
	case BotStoreMemory, BotStoreRedis:
	default:
		return BotStoreConfig{}, fmt.Errorf("invalid BOT_STORE value: %q", driver)
	}

	ttlSeconds := 0
	if override, err := parseOptionalIntEnv("BOT_STORE_TTL_SECONDS"); err != nil {
		return BotStoreConfig{}, err
	} else if override != nil {
		ttlSeconds = *override
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if driver == BotStoreRedis && redisURL == "" {
		return BotStoreConfig{}, fmt.Errorf("BOT_STORE=redis requires REDIS_URL")
	}

	return BotStoreConfig{
		Driver:   driver,
		RedisURL: redisURL,
		RedisTTL: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// RateLimitConfig bounds how fast one client may hit the relay.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	enabled, err := parseBoolEnv("RELAY_RATE_LIMIT_ENABLED", true)
	if err != nil {
		return RateLimitConfig{}, err
	}

	rps := 1.0
	if override, err := parseOptionalFloatEnv("RELAY_RATE_LIMIT_RPS"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return RateLimitConfig{}, fmt.Errorf("RELAY_RATE_LIMIT_RPS must be positive, got %v", *override)
		}
		rps = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("RELAY_RATE_LIMIT_BURST"); err != nil {
		return RateLimitConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return RateLimitConfig{}, fmt.Errorf("RELAY_RATE_LIMIT_BURST must be at least 1, got %d", *override)
		}
		burst = *override
	}

	return RateLimitConfig{Enabled: enabled, RPS: rps, Burst: burst}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
