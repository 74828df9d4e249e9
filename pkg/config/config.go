package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	APIKeyEnv   string  `yaml:"api_key_env"`
}

type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

type RAGConfig struct {
	TopK                int `yaml:"top_k"`
	MaxQuestionLen      int `yaml:"max_question_len"`
	ProviderTimeoutSecs int `yaml:"provider_timeout_secs"`
}

type HistoryConfig struct {
	// MaxTurns bounds each session's history to the most recent turns.
	MaxTurns int `yaml:"max_turns"`
}

type ServerConfig struct {
	Port            int     `yaml:"port"`
	SessionSecret   string  `yaml:"session_secret"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	RAG       RAGConfig       `yaml:"rag"`
	History   HistoryConfig   `yaml:"history"`
	Server    ServerConfig    `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/reviews/config.yaml"),
			"/etc/reviews/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

// LLMAPIKey resolves the LLM provider credential from the environment.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

// EmbeddingAPIKey resolves the embedding provider credential from the
// environment, falling back to the LLM credential when the embedding
// endpoint shares it.
func (c *Config) EmbeddingAPIKey() string {
	if key := os.Getenv(c.Embedding.APIKeyEnv); key != "" {
		return key
	}
	return c.LLMAPIKey()
}

func applyDefaults(config *Config) {
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "llama-3.1-8b-instant"
	}
	if config.LLM.APIKeyEnv == "" {
		config.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	// Temperature defaults to 0 for deterministic answers.

	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-3-small"
	}
	if config.Embedding.APIKeyEnv == "" {
		config.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "product_reviews"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if config.RAG.TopK == 0 {
		config.RAG.TopK = 3
	}
	if config.RAG.MaxQuestionLen == 0 {
		config.RAG.MaxQuestionLen = 1000
	}
	if config.RAG.ProviderTimeoutSecs == 0 {
		config.RAG.ProviderTimeoutSecs = 30
	}

	if config.History.MaxTurns == 0 {
		config.History.MaxTurns = 50
	}

	if config.Server.Port == 0 {
		config.Server.Port = 8000
	}
	if config.Server.RateLimitPerSec == 0 {
		config.Server.RateLimitPerSec = 5
	}
	if config.Server.RateLimitBurst == 0 {
		config.Server.RateLimitBurst = 10
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.Server.SessionSecret = secret
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if baseURL := os.Getenv("EMBEDDING_BASE_URL"); baseURL != "" {
		config.Embedding.BaseURL = baseURL
	}
}
