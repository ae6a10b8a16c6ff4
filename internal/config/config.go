// internal/config/config.go
//
// Configuration for the crossword backend.
// Responsibilities:
//   - Load a YAML config file (optional; sensible defaults when missing).
//   - Apply environment variable overrides on top of the file values.
//
// Environment variables:
//   PORT           listen port for the shell API
//   PLAYERS_DB     path to the players/games SQLite database
//   QUESTIONS_DB   path to the questions SQLite database
//   QUESTIONS_SEED path to a question seed JSON (empty = embedded seed)
//   JWT_SECRET     signing secret for player tokens

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		PlayersDB   string `yaml:"players_db"`
		QuestionsDB string `yaml:"questions_db"`
	} `yaml:"storage"`
	Questions struct {
		SeedPath string `yaml:"seed_path"`
	} `yaml:"questions"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
}

// Load reads YAML config from path, falling back to defaults when the file
// does not exist, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	var cfg Config
	cfg.Server.Port = "7717"
	cfg.Storage.PlayersDB = "./data/players.db"
	cfg.Storage.QuestionsDB = "./data/questions.db"
	cfg.Auth.JWTSecret = "dev_secret_change_me"
	cfg.Auth.TokenTTL = "2h"
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("PLAYERS_DB"); v != "" {
		cfg.Storage.PlayersDB = v
	}
	if v := os.Getenv("QUESTIONS_DB"); v != "" {
		cfg.Storage.QuestionsDB = v
	}
	if v := os.Getenv("QUESTIONS_SEED"); v != "" {
		cfg.Questions.SeedPath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// TokenTTL parses the configured token lifetime or returns the fallback
// when unset/invalid.
func (c Config) TokenTTL(fallback time.Duration) time.Duration {
	if c.Auth.TokenTTL == "" {
		return fallback
	}
	if d, err := time.ParseDuration(c.Auth.TokenTTL); err == nil {
		return d
	}
	return fallback
}
