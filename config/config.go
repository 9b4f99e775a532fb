// Package config loads config.json. Missing keys keep their defaults,
// so a partial file is enough to override just one setting. A missing
// file is created with the defaults for the user to edit.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// LLM selects the model endpoint.
type LLM struct {
	BaseURL        string  `json:"base_url"`
	APIKey         string  `json:"api_key"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (l LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Server locates the bot runtime's HTTP server.
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// URL returns the bot runtime base URL.
func (s Server) URL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// AI tunes the decision loop and its stores.
type AI struct {
	InitialTask        string  `json:"initial_task"`
	Steps              int     `json:"steps"`
	DelaySeconds       float64 `json:"delay_seconds"`
	MemoryCapacity     int     `json:"memory_capacity"`
	PredictionCapacity int     `json:"prediction_capacity"`
	CacheTTLSeconds    int     `json:"cache_ttl_seconds"`
	LearningEnabled    bool    `json:"learning_enabled"`
}

// Delay returns the between-steps pause as a duration.
func (a AI) Delay() time.Duration {
	return time.Duration(a.DelaySeconds * float64(time.Second))
}

// CacheTTL returns the response cache lifetime as a duration.
func (a AI) CacheTTL() time.Duration {
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

// Data locates files on disk.
type Data struct {
	Dir      string `json:"dir"`
	PacksDir string `json:"packs_dir"`
}

// Config is the whole configuration file.
type Config struct {
	LLM    LLM    `json:"llm"`
	Server Server `json:"server"`
	AI     AI     `json:"ai"`
	Data   Data   `json:"data"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			Temperature:    0.7,
			MaxTokens:      2048,
			TimeoutSeconds: 60,
		},
		Server: Server{
			Host: "localhost",
			Port: 3002,
		},
		AI: AI{
			InitialTask:        "gather_wood",
			Steps:              100,
			DelaySeconds:       2,
			MemoryCapacity:     20,
			PredictionCapacity: 100,
			CacheTTLSeconds:    86400,
			LearningEnabled:    true,
		},
		Data: Data{
			Dir: "data",
		},
	}
}

// Load reads the config file at path, overlaying it on the defaults.
// When the file does not exist, the defaults are written there and
// returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := Save(path, cfg); writeErr != nil {
			return cfg, fmt.Errorf("writing default config: %w", writeErr)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Unmarshal into the defaults: absent keys keep their values.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a config file with stable formatting.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
