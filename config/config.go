package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storyreel/internal/appdirs"
	"storyreel/log"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Gemini struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type OpenAI struct {
	BaseURL      string `toml:"base_url"`
	APIKey       string `toml:"api_key"`
	WhisperModel string `toml:"whisper_model"`
	ChatModel    string `toml:"chat_model"`
}

type Analysis struct {
	// Provider selects the narration analysis backend: gemini or openai
	Provider             string `toml:"provider"`
	RequestTimeoutSecond int    `toml:"request_timeout_second"`
	Gemini               Gemini `toml:"gemini"`
	OpenAI               OpenAI `toml:"openai"`
}

type Media struct {
	FfprobePath        string `toml:"ffprobe_path"`
	ProbeTimeoutSecond int    `toml:"probe_timeout_second"`
}

type Config struct {
	Server   Server   `toml:"server"`
	Analysis Analysis `toml:"analysis"`
	Media    Media    `toml:"media"`
}

var Conf Config

func defaultConfig() Config {
	return Config{
		Server: Server{
			Host: "127.0.0.1",
			Port: 8888,
		},
		Analysis: Analysis{
			Provider:             "gemini",
			RequestTimeoutSecond: 120,
			Gemini: Gemini{
				BaseURL: "https://generativelanguage.googleapis.com",
				Model:   "gemini-2.0-flash",
			},
			OpenAI: OpenAI{
				WhisperModel: "whisper-1",
				ChatModel:    "gpt-4o-mini",
			},
		},
		Media: Media{
			ProbeTimeoutSecond: 15,
		},
	}
}

var resolveConfigPath = func() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

// LoadOrCreateConfig loads the config file into Conf, writing a default file
// first when none exists. It reports whether the file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, fmt.Errorf("failed to write default config: %w", err)
		}
		if log.GetLogger() != nil {
			log.GetLogger().Info("generated default config file", zap.String("path", configPath))
		}
		return true, nil
	}

	// Start from defaults so fields absent from the file keep sane values
	Conf = defaultConfig()
	if _, err := toml.DecodeFile(configPath, &Conf); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	return false, nil
}

// SaveConfig writes the current Conf to the config file, creating parent
// directories as needed.
func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

// CheckConfig validates the parts of Conf the server cannot run without.
func CheckConfig() error {
	if Conf.Server.Port <= 0 || Conf.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", Conf.Server.Port)
	}

	provider := strings.ToLower(strings.TrimSpace(Conf.Analysis.Provider))
	switch provider {
	case "gemini":
		if strings.TrimSpace(Conf.Analysis.Gemini.APIKey) == "" {
			return errors.New("analysis.gemini.api_key is required when provider is gemini")
		}
		if strings.TrimSpace(Conf.Analysis.Gemini.Model) == "" {
			return errors.New("analysis.gemini.model must not be empty")
		}
	case "openai":
		if strings.TrimSpace(Conf.Analysis.OpenAI.APIKey) == "" {
			return errors.New("analysis.openai.api_key is required when provider is openai")
		}
	default:
		return fmt.Errorf("unknown analysis provider: %q", Conf.Analysis.Provider)
	}

	if Conf.Analysis.RequestTimeoutSecond <= 0 {
		return fmt.Errorf("invalid analysis request timeout: %d", Conf.Analysis.RequestTimeoutSecond)
	}
	if Conf.Media.ProbeTimeoutSecond <= 0 {
		return fmt.Errorf("invalid media probe timeout: %d", Conf.Media.ProbeTimeoutSecond)
	}
	return nil
}
