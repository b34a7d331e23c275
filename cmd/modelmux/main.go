// Command modelmux sends one prompt to the configured provider and prints
// the reply, streaming it live when asked. It is the smallest useful wiring
// of config -> registry -> provider -> cost manager.
//
// Usage:
//
//	modelmux -prompt "Hello, world!"
//	modelmux -config ./config.yaml -stream -prompt "Write a haiku about Go."
//	modelmux -api-type github_copilot -model gpt-4o -prompt "Hi."
//
// Configuration is read from -config, else ./config.yaml, else
// $HOME/.modelmux/config.yaml. Flags override the file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/modelmux/modelmux/config"
	"github.com/modelmux/modelmux/core/cost"
	"github.com/modelmux/modelmux/providers/llm"
	"github.com/modelmux/modelmux/providers/observability"
	"github.com/modelmux/modelmux/providers/observability/slogobs"

	// Adapters register themselves with the llm registry on import.
	_ "github.com/modelmux/modelmux/providers/llm/copilot"
	_ "github.com/modelmux/modelmux/providers/llm/github"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		apiType    = flag.String("api-type", "", "override api_type (github, github_copilot)")
		model      = flag.String("model", "", "override the configured model")
		prompt     = flag.String("prompt", "", "prompt to send; positional args are joined as a fallback")
		system     = flag.String("system", "", "optional system message")
		stream     = flag.Bool("stream", false, "stream the reply as it is generated")
	)
	flag.Parse()

	text := *prompt
	if text == "" {
		text = strings.Join(flag.Args(), " ")
	}
	if text == "" {
		fmt.Fprintln(os.Stderr, "modelmux: no prompt given")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *apiType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelmux: %v\n", err)
		os.Exit(1)
	}
	if *apiType != "" {
		parsed, err := config.ParseAPIType(*apiType)
		if err != nil {
			fmt.Fprintf(os.Stderr, "modelmux: %v\n", err)
			os.Exit(2)
		}
		cfg.LLM.APIType = parsed
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}

	observer := slogobs.New(slogobs.WithOutput(os.Stderr))
	ctx := observability.ContextWithObserver(context.Background(), observer)

	manager := cost.NewManager(cfg.LLM.MaxBudget)
	provider, err := llm.New(&cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelmux: %v\n", err)
		os.Exit(1)
	}
	provider = provider.WithCostManager(manager)

	reply, err := complete(ctx, provider, *system, text, *stream)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelmux: %v\n", err)
		os.Exit(1)
	}

	if *stream {
		// Fragments already reached stdout through the stream sink.
		fmt.Println()
	} else {
		fmt.Println(reply)
	}

	printCosts(manager)
}

// loadConfig resolves the effective configuration. An explicit -config path
// must exist; otherwise the conventional locations are tried, and when the
// caller supplies -api-type a bare default config is enough to proceed.
func loadConfig(path, apiType string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.LoadDefault()
	if err == nil {
		return cfg, nil
	}
	if apiType != "" {
		return &config.Config{LLM: config.Default()}, nil
	}
	return nil, err
}

func complete(ctx context.Context, provider llm.Provider, system, prompt string, stream bool) (string, error) {
	if stream {
		return llm.AskStream(ctx, provider, prompt)
	}
	if system != "" {
		return llm.AskWithSystem(ctx, provider, system, prompt)
	}
	return llm.Ask(ctx, provider, prompt)
}

// printCosts reports accumulated usage on stderr so it never mixes with the
// reply on stdout. Backends that report no usage print nothing.
func printCosts(manager *cost.Manager) {
	costs := manager.Costs()
	if costs.TotalPromptTokens+costs.TotalCompletionTokens == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "tokens: %d prompt + %d completion, cost: $%.6f\n",
		costs.TotalPromptTokens, costs.TotalCompletionTokens, costs.TotalCost)
}
