// Package config loads the application configuration from a YAML file
// and secrets from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/answer"
	"github.com/poiesic/docent/chunker"
	"github.com/poiesic/docent/search"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "docent.yaml"

// AIConfig configures the embedding and chat services.
type AIConfig struct {
	EmbeddingHost  string   `yaml:"embedding_host"`
	ChatHost       string   `yaml:"chat_host"`
	EmbeddingModel string   `yaml:"embedding_model"`
	ChatModel      string   `yaml:"chat_model"`
	APIKeyEnv      string   `yaml:"api_key_env"`
	Temperature    *float64 `yaml:"temperature,omitempty"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	BatchSize      int      `yaml:"batch_size"`
}

// PresetConfig holds one pair of chunking parameters.
type PresetConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ChunkingConfig holds the presets for initial and incremental ingestion.
type ChunkingConfig struct {
	Bulk  PresetConfig `yaml:"bulk"`
	AdHoc PresetConfig `yaml:"adhoc"`
}

// RetrievalConfig configures the retriever.
type RetrievalConfig struct {
	TopK         int      `yaml:"top_k"`
	MinRelevance *float64 `yaml:"min_relevance,omitempty"`
}

// AnswerConfig configures the persona and the context bound.
type AnswerConfig struct {
	Name            string `yaml:"name"`
	Domain          string `yaml:"domain"`
	Identity        string `yaml:"identity"`
	Capabilities    string `yaml:"capabilities"`
	NoInformation   string `yaml:"no_information"`
	Refusal         string `yaml:"refusal"`
	MaxContextChars int    `yaml:"max_context_chars"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DocumentDir string          `yaml:"document_dir"`
	IndexDir    string          `yaml:"index_dir"`
	AI          AIConfig        `yaml:"ai"`
	Chunking    ChunkingConfig  `yaml:"chunking"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Answer      AnswerConfig    `yaml:"answer"`
}

// Load reads a config from path. A missing file yields the defaults;
// fields absent from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv loads variables from the given .env files, or ./.env when none
// is given. Missing files are ignored; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	present := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	defaults := ai.DefaultConfig()

	if cfg.DocumentDir == "" {
		cfg.DocumentDir = "documents"
	}
	if cfg.IndexDir == "" {
		cfg.IndexDir = "index"
	}

	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = defaults.EmbeddingHost
	}
	if cfg.AI.ChatHost == "" {
		cfg.AI.ChatHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = defaults.ChatModel
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.AI.Temperature == nil {
		t := defaults.Temperature
		cfg.AI.Temperature = &t
	}
	if cfg.AI.TimeoutSecs == 0 {
		cfg.AI.TimeoutSecs = int(defaults.Timeout / time.Second)
	}
	if cfg.AI.BatchSize == 0 {
		cfg.AI.BatchSize = 32
	}

	if cfg.Chunking.Bulk.ChunkSize == 0 {
		cfg.Chunking.Bulk = PresetConfig{ChunkSize: chunker.Bulk.ChunkSize, ChunkOverlap: chunker.Bulk.ChunkOverlap}
	}
	if cfg.Chunking.AdHoc.ChunkSize == 0 {
		cfg.Chunking.AdHoc = PresetConfig{ChunkSize: chunker.AdHoc.ChunkSize, ChunkOverlap: chunker.AdHoc.ChunkOverlap}
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = search.DefaultTopK
	}
	if cfg.Retrieval.MinRelevance == nil {
		m := float64(search.DefaultMinRelevance)
		cfg.Retrieval.MinRelevance = &m
	}

	persona := answer.DefaultPersona()
	if cfg.Answer.Name == "" {
		cfg.Answer.Name = persona.Name
	}
	if cfg.Answer.Domain == "" {
		cfg.Answer.Domain = persona.Domain
	}
	if cfg.Answer.Identity == "" {
		cfg.Answer.Identity = persona.Identity
	}
	if cfg.Answer.Capabilities == "" {
		cfg.Answer.Capabilities = persona.Capabilities
	}
	if cfg.Answer.NoInformation == "" {
		cfg.Answer.NoInformation = persona.NoInformation
	}
	if cfg.Answer.Refusal == "" {
		cfg.Answer.Refusal = persona.Refusal
	}
	if cfg.Answer.MaxContextChars == 0 {
		cfg.Answer.MaxContextChars = answer.DefaultMaxContextChars
	}
}

// Validate checks values a YAML file can get wrong.
func (c *AppConfig) Validate() error {
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("config: retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if m := c.minRelevance(); m < 0 || m > 1 {
		return fmt.Errorf("config: retrieval.min_relevance must be within [0,1], got %v", m)
	}
	if c.Chunking.Bulk.ChunkSize < 1 || c.Chunking.AdHoc.ChunkSize < 1 {
		return errors.New("config: chunk sizes must be positive")
	}
	if c.Answer.MaxContextChars < 1 {
		return errors.New("config: answer.max_context_chars must be positive")
	}
	return c.AIConfig().Validate()
}

// AIConfig converts the ai section, reading the API key from the
// environment variable it names.
func (c *AppConfig) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithChatHost(c.AI.ChatHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithChatModel(c.AI.ChatModel),
		ai.WithTimeout(time.Duration(c.AI.TimeoutSecs) * time.Second),
	}
	if c.AI.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*c.AI.Temperature))
	}
	if c.AI.APIKeyEnv != "" {
		opts = append(opts, ai.WithAPIKey(os.Getenv(c.AI.APIKeyEnv)))
	}
	return ai.NewConfig(opts...)
}

func (c *AppConfig) BulkPreset() chunker.Preset {
	return chunker.Preset{Name: chunker.Bulk.Name, ChunkSize: c.Chunking.Bulk.ChunkSize, ChunkOverlap: c.Chunking.Bulk.ChunkOverlap}
}

func (c *AppConfig) AdHocPreset() chunker.Preset {
	return chunker.Preset{Name: chunker.AdHoc.Name, ChunkSize: c.Chunking.AdHoc.ChunkSize, ChunkOverlap: c.Chunking.AdHoc.ChunkOverlap}
}

func (c *AppConfig) Persona() answer.Persona {
	return answer.Persona{
		Name:          c.Answer.Name,
		Domain:        c.Answer.Domain,
		Identity:      c.Answer.Identity,
		Capabilities:  c.Answer.Capabilities,
		NoInformation: c.Answer.NoInformation,
		Refusal:       c.Answer.Refusal,
	}
}

func (c *AppConfig) minRelevance() float64 {
	if c.Retrieval.MinRelevance == nil {
		return search.DefaultMinRelevance
	}
	return *c.Retrieval.MinRelevance
}

// MinRelevance returns the retrieval threshold.
func (c *AppConfig) MinRelevance() float32 {
	return float32(c.minRelevance())
}
