package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatdoc/internal/chunker"
	"chatdoc/internal/logger"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Mode        string `yaml:"mode"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaConfig holds connection details for a local Ollama server.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// HashingConfig configures the offline feature-hashing embedder.
type HashingConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string                `yaml:"type"`
	Ollama  *OllamaConfig         `yaml:"ollama,omitempty"`
	OpenAI  *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Hashing *HashingConfig        `yaml:"hashing,omitempty"`
}

// GeminiConfig configures the Gemini generator.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// LLMConfig selects and configures the answer generator.
type LLMConfig struct {
	Type   string        `yaml:"type"`
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
	Gemini *GeminiConfig `yaml:"gemini,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"`
	Dir    string        `yaml:"dir"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
	TopTerms     int    `yaml:"top_terms"`
}

// CacheConfig sizes the embedding cache. Size 0 disables it.
type CacheConfig struct {
	Size    int `yaml:"size"`
	TTLSecs int `yaml:"ttl_secs"`
}

// UploadConfig limits accepted uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log         logger.Config     `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Chunker     chunker.Config    `yaml:"chunker"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Cache       CacheConfig       `yaml:"cache"`
	Upload      UploadConfig      `yaml:"upload"`
}

// DefaultVectorStoreDir is the fixed on-disk location of the persistent index.
const DefaultVectorStoreDir = "data/vector_store"

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/chatdoc/config.yaml.
// If neither exists, it writes defaults to ~/.config/chatdoc/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	_ = godotenv.Load()
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
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

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatdoc", "config.yaml"), nil
}

// Default returns the built-in configuration: Ollama for embeddings and
// generation, the SQLite index under data/vector_store, recursive chunking.
func Default() *AppConfig {
	cfg := &AppConfig{
		Log:         logger.Config{Level: "info", Console: true},
		Server:      ServerConfig{Addr: ":8080", Mode: "release", TimeoutSecs: 300},
		Embedder:    EmbedderConfig{Type: "ollama"},
		LLM:         LLMConfig{Type: "ollama"},
		VectorStore: VectorStoreConfig{Type: "sqlite", Dir: DefaultVectorStoreDir},
		Chunker:     chunker.DefaultConfig(),
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 5, TopTerms: 20},
		Cache:       CacheConfig{Size: 1024, TTLSecs: 600},
		Upload:      UploadConfig{MaxBytes: 200 << 20},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 300
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	switch cfg.Embedder.Type {
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaConfig{}
		}
		fillOllama(cfg.Embedder.Ollama, "mxbai-embed-large", 60)
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 5
		}
	case "hashing":
		if cfg.Embedder.Hashing == nil {
			cfg.Embedder.Hashing = &HashingConfig{}
		}
		if cfg.Embedder.Hashing.Dimension == 0 {
			cfg.Embedder.Hashing.Dimension = 512
		}
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "ollama"
	}
	switch cfg.LLM.Type {
	case "ollama":
		if cfg.LLM.Ollama == nil {
			cfg.LLM.Ollama = &OllamaConfig{}
		}
		fillOllama(cfg.LLM.Ollama, "llama3.2:latest", 300)
	case "gemini":
		if cfg.LLM.Gemini == nil {
			cfg.LLM.Gemini = &GeminiConfig{}
		}
		if cfg.LLM.Gemini.APIKeyEnv == "" {
			cfg.LLM.Gemini.APIKeyEnv = "GEMINI_API_KEY"
		}
		if cfg.LLM.Gemini.Model == "" {
			cfg.LLM.Gemini.Model = "gemini-2.0-flash"
		}
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Dir == "" {
		cfg.VectorStore.Dir = DefaultVectorStoreDir
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant == nil {
		cfg.VectorStore.Qdrant = &QdrantConfig{URL: "http://localhost:6333", Collection: "chatdoc"}
	}
	if cfg.Chunker.Strategy == "" {
		cfg.Chunker = chunker.DefaultConfig()
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.Summarizer.TopTerms == 0 {
		cfg.Summarizer.TopTerms = 20
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 200 << 20
	}
}

func fillOllama(o *OllamaConfig, model string, timeoutSecs int) {
	if o.BaseURL == "" {
		o.BaseURL = "http://localhost:11434"
	}
	if o.Model == "" {
		o.Model = model
	}
	if o.TimeoutSecs == 0 {
		o.TimeoutSecs = timeoutSecs
	}
}

// applyEnv lets OLLAMA_HOST point both Ollama clients at another server.
// GEMINI_API_KEY is read by the Gemini generator through APIKeyEnv.
func applyEnv(cfg *AppConfig) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	if cfg.Embedder.Ollama != nil {
		cfg.Embedder.Ollama.BaseURL = host
	}
	if cfg.LLM.Ollama != nil {
		cfg.LLM.Ollama.BaseURL = host
	}
}
