// Package config selects the LLM provider and the collaborating services from
// the environment. A .env file in the working directory is loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casualjim/swekit/api"
	swopenai "github.com/casualjim/swekit/provider/openai"
	"github.com/joho/godotenv"
	"github.com/openai/openai-go/option"
)

// Provider names the LLM vendor the agents talk to.
type Provider string

const (
	Anthropic Provider = "anthropic"
	OpenAI    Provider = "openai"
	Azure     Provider = "azure"
)

const (
	DefaultAnthropicModel = "claude-3-5-sonnet-20240620"
	DefaultOpenAIModel    = "gpt-4-turbo"
	DefaultAzureModel     = "test"
	DefaultWorkspaceURL   = "http://localhost:8000"

	anthropicBaseURL         = "https://api.anthropic.com/v1/"
	anthropicHeliconeBaseURL = "https://anthropic.helicone.ai/v1/"
	openaiHeliconeBaseURL    = "https://oai.helicone.ai/v1"
)

// ErrNoProvider is returned when no API key of a supported provider is set.
var ErrNoProvider = errors.New("could not find API key for any supported LLM models, " +
	"please export either `ANTHROPIC_API_KEY`, `OPENAI_API_KEY` or `AZURE_OPENAI_API_KEY`")

type Config struct {
	Provider   Provider
	Model      string
	JudgeModel string
	APIKey     string
	// BaseURL is empty for the vendor default.
	BaseURL  string
	Headers  map[string]string
	Query    map[string]string
	Helicone bool

	WorkspaceURL    string
	WorkspaceAPIKey string
	NATSURL         string
	DatabaseURL     string
	TemporalAddress string
	LogLevel        string
}

// Load reads .env, when present, and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv. The first provider with an
// API key wins, in the order Anthropic, OpenAI, Azure OpenAI.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		WorkspaceURL:    env("WORKSPACE_URL", DefaultWorkspaceURL),
		WorkspaceAPIKey: env("WORKSPACE_API_KEY", ""),
		NATSURL:         env("NATS_URL", ""),
		DatabaseURL:     env("DATABASE_URL", ""),
		TemporalAddress: env("TEMPORAL_ADDRESS", ""),
		LogLevel:        env("SWEKIT_LOG_LEVEL", "info"),
		Headers:         map[string]string{},
		Query:           map[string]string{},
	}
	helicone := env("HELICONE_API_KEY", "")

	switch {
	case env("ANTHROPIC_API_KEY", "") != "":
		cfg.Provider = Anthropic
		cfg.Model = DefaultAnthropicModel
		cfg.APIKey = env("ANTHROPIC_API_KEY", "")
		cfg.BaseURL = anthropicBaseURL
		if helicone != "" {
			cfg.BaseURL = anthropicHeliconeBaseURL
		}
	case env("OPENAI_API_KEY", "") != "":
		cfg.Provider = OpenAI
		cfg.Model = DefaultOpenAIModel
		cfg.APIKey = env("OPENAI_API_KEY", "")
		if helicone != "" {
			cfg.BaseURL = openaiHeliconeBaseURL
		}
	case env("AZURE_OPENAI_API_KEY", "") != "":
		endpoint := env("AZURE_OPENAI_ENDPOINT", "")
		if endpoint == "" {
			return Config{}, errors.New("AZURE_OPENAI_ENDPOINT is required with AZURE_OPENAI_API_KEY")
		}
		cfg.Provider = Azure
		cfg.Model = env("AZURE_OPENAI_DEPLOYMENT", DefaultAzureModel)
		cfg.APIKey = env("AZURE_OPENAI_API_KEY", "")
		cfg.BaseURL = strings.TrimSuffix(endpoint, "/") + "/openai/deployments/" + cfg.Model + "/"
		cfg.Headers["api-key"] = cfg.APIKey
		if v := env("OPENAI_API_VERSION", ""); v != "" {
			cfg.Query["api-version"] = v
		}
		// Helicone has no Azure gateway here
		helicone = ""
	default:
		return Config{}, ErrNoProvider
	}

	if helicone != "" {
		cfg.Helicone = true
		cfg.Headers["Helicone-Auth"] = "Bearer " + helicone
	}
	cfg.Model = env("SWEKIT_MODEL", cfg.Model)
	cfg.JudgeModel = env("SWEKIT_JUDGE_MODEL", cfg.Model)
	return cfg, nil
}

// RequestOptions returns the openai-go options that reach the selected provider.
func (c Config) RequestOptions() []option.RequestOption {
	opts := []option.RequestOption{option.WithAPIKey(c.APIKey)}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	for k, v := range c.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	for k, v := range c.Query {
		opts = append(opts, option.WithQuery(k, v))
	}
	return opts
}

// AgentModel is the model the agents run on.
func (c Config) AgentModel() api.Model {
	return swopenai.NewModel(c.Model, c.RequestOptions()...)
}

// Judge is the model that classifies test output and picks patches.
func (c Config) Judge() api.Model {
	return swopenai.NewModel(c.JudgeModel, c.RequestOptions()...)
}

func (c Config) String() string {
	via := ""
	if c.Helicone {
		via = " via Helicone"
	}
	return fmt.Sprintf("%s (%s)%s", c.Provider, c.Model, via)
}
