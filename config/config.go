package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

// APIType selects which provider adapter the registry constructs.
type APIType string

const (
	// APITypeGitHub is the conversational search-assistant backend.
	APITypeGitHub APIType = "github"
	// APITypeGitHubCopilot is the Copilot chat-completions backend.
	APITypeGitHubCopilot APIType = "github_copilot"
)

// ParseAPIType validates a raw api_type string.
func ParseAPIType(s string) (APIType, error) {
	switch APIType(s) {
	case APITypeGitHub, APITypeGitHubCopilot:
		return APIType(s), nil
	default:
		return "", fmt.Errorf("unknown api_type %q (supported: %s, %s)", s, APITypeGitHub, APITypeGitHubCopilot)
	}
}

func (t APIType) String() string {
	return string(t)
}

// Default values applied before a config file is read. Fields absent from the
// file keep these values.
const (
	DefaultTemperature      = 0.0
	DefaultTopP             = 1.0
	DefaultFrequencyPenalty = 0.0
	DefaultPresencePenalty  = 0.0
	DefaultMaxToken         = 4096
	DefaultTimeout          = 600 * time.Second
	DefaultMaxBudget        = 10.0
)

// Duration is a time.Duration that unmarshals from YAML either as a Go
// duration string ("90s", "10m") or as a bare number of seconds (600), the
// form most config files in the wild use for request timeouts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := node.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q: want a duration string or seconds", raw)
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LLMConfig is the value object handed to a provider adapter at construction.
// It is read-only thereafter; adapters never write back into it.
type LLMConfig struct {
	APIType APIType `yaml:"api_type"`
	APIKey  string  `yaml:"api_key"`
	BaseURL string  `yaml:"base_url"`
	Model   string  `yaml:"model"`

	// Proxy is an optional outbound proxy URL applied to the adapter's
	// HTTP client (and therefore to websocket dials too).
	Proxy string `yaml:"proxy"`

	Temperature      float64  `yaml:"temperature"`
	TopP             float64  `yaml:"top_p"`
	FrequencyPenalty float64  `yaml:"frequency_penalty"`
	PresencePenalty  float64  `yaml:"presence_penalty"`
	Stop             []string `yaml:"stop"`
	MaxToken         int      `yaml:"max_token"`

	Timeout Duration `yaml:"timeout"`

	// CalcUsage toggles local token-usage estimation when the backend does
	// not report usage. Unset means enabled.
	CalcUsage *bool `yaml:"calc_usage"`

	// PricingPlan overrides which pricing/token-counting table is used for
	// cost accounting. It never changes the model actually invoked.
	PricingPlan string `yaml:"pricing_plan"`

	MaxBudget float64 `yaml:"max_budget"`
}

// Default returns an LLMConfig carrying the documented neutral defaults.
// Unmarshal a config file over it so absent fields keep their defaults.
func Default() LLMConfig {
	return LLMConfig{
		Temperature:      DefaultTemperature,
		TopP:             DefaultTopP,
		FrequencyPenalty: DefaultFrequencyPenalty,
		PresencePenalty:  DefaultPresencePenalty,
		MaxToken:         DefaultMaxToken,
		Timeout:          Duration(DefaultTimeout),
		MaxBudget:        DefaultMaxBudget,
	}
}

// CalcUsageEnabled reports whether local usage estimation is on. The nil
// pointer (field absent from the file) counts as enabled.
func (c *LLMConfig) CalcUsageEnabled() bool {
	return c.CalcUsage == nil || *c.CalcUsage
}

// RequestTimeout returns the configured timeout, falling back to
// DefaultTimeout when unset or negative.
func (c *LLMConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.Timeout)
}

// HTTPClient builds the HTTP client adapters use for outbound calls,
// honoring the configured proxy. Per-request deadlines come from contexts,
// not from the client, so no Timeout is set here.
func (c *LLMConfig) HTTPClient() (*http.Client, error) {
	if c.Proxy == "" {
		return &http.Client{}, nil
	}
	proxyURL, err := url.Parse(c.Proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", c.Proxy, err)
	}
	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

// Validate checks the fields the adapters rely on. Model validation is the
// adapter's job since each backend has its own allow-list.
func (c *LLMConfig) Validate() error {
	if _, err := ParseAPIType(string(c.APIType)); err != nil {
		return err
	}
	if c.MaxToken < 0 {
		return fmt.Errorf("max_token must be >= 0, got %d", c.MaxToken)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %s", time.Duration(c.Timeout))
	}
	if c.MaxBudget < 0 {
		return fmt.Errorf("max_budget must be >= 0, got %v", c.MaxBudget)
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", c.Proxy, err)
		}
	}
	return nil
}
