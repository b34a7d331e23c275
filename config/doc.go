// Package config defines the configuration record consumed by provider
// adapters and loads it from YAML files with environment overrides.
//
// The file shape is a single llm section:
//
//	llm:
//	  api_type: github_copilot
//	  api_key: ${GITHUB_COPILOT_API_KEY}
//	  model: gpt-4o
//	  temperature: 0.2
//	  timeout: 10m
//
// Load order is defaults, then file, then LLM_API_KEY / LLM_BASE_URL
// environment variables, so later layers only state what they change.
// Binaries that want .env support import github.com/joho/godotenv/autoload.
package config
