package main

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// Config holds application configuration, loaded from the environment.
type Config struct {
	DataDir               string
	SourcesPath           string
	LogPath               string
	LogLevel              LogLevel
	DashboardPort         int
	UpdateIntervalMinutes int
	UpdateCron            string
	FetchOnStartup        bool

	UserAgent     string
	ReaderProxy   string
	TargetLang    string
	Translator    string
	DeepLAPIURL   string
	DeepLAuthKey  string
	OpenAIAPIKey  string
	MoltbookAPI   string
	MoltbookKey   string
	OpenClawAPI   string
	GitHubToken   string
}

// LoadConfig builds the configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DataDir:               GetEnvString("DATA_DIR", DefaultDataDir),
		SourcesPath:           GetEnvString("SOURCES_PATH", "config/sources.yml"),
		LogPath:               GetEnvString("LOG_PATH", "logs/shinbun.log"),
		LogLevel:              ParseLogLevel(GetEnvString("LOG_LEVEL", "info")),
		DashboardPort:         GetEnvInt("DASHBOARD_PORT", 8080),
		UpdateIntervalMinutes: GetEnvInt("UPDATE_INTERVAL_MINUTES", 60),
		UpdateCron:            GetEnvString("UPDATE_CRON", "@hourly"),
		FetchOnStartup:        GetEnvBool("FETCH_ON_STARTUP", false),

		UserAgent:    GetEnvString("USER_AGENT", DefaultUserAgent),
		ReaderProxy:  GetEnvString("READER_PROXY", "https://r.jina.ai/"),
		TargetLang:   GetEnvString("TARGET_LANG", DefaultTargetLanguage),
		Translator:   GetEnvString("TRANSLATOR_ENGINE", "deepl"),
		DeepLAPIURL:  GetEnvString("DEEPL_API_URL", "https://api-free.deepl.com/v2/translate"),
		DeepLAuthKey: GetEnvString("DEEPL_AUTH_KEY", ""),
		OpenAIAPIKey: GetEnvString("OPENAI_API_KEY", ""),
		MoltbookAPI:  GetEnvString("MOLTBOOK_API_URL", "https://www.moltbook.com/api/v1"),
		MoltbookKey:  GetEnvString("MOLTBOOK_API_KEY", ""),
		OpenClawAPI:  GetEnvString("OPENCLAW_API_URL", "https://api.github.com/repos/openclaw/openclaw"),
		GitHubToken:  GetEnvString("GITHUB_TOKEN", ""),
	}

	if _, err := language.Parse(cfg.TargetLang); err != nil {
		return nil, NewError(ErrorTypeAPI, "CONFIG_001", fmt.Sprintf("invalid TARGET_LANG %q", cfg.TargetLang), err)
	}

	switch cfg.Translator {
	case "deepl", "openai", "none":
	default:
		return nil, NewError(ErrorTypeAPI, "CONFIG_002", fmt.Sprintf("unknown TRANSLATOR_ENGINE %q", cfg.Translator), nil)
	}

	if cfg.UpdateIntervalMinutes <= 0 {
		cfg.UpdateIntervalMinutes = 60
	}

	return cfg, nil
}

// Source is one configured upstream origin of articles.
type Source struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	URL          string   `yaml:"url"`
	Kind         string   `yaml:"kind"`    // rss, html, api
	API          string   `yaml:"api"`     // adapter name for kind: api
	Profile      string   `yaml:"profile"` // scrape profile for kind: html
	Category     string   `yaml:"category"`
	Translate    bool     `yaml:"translate"`
	Enabled      bool     `yaml:"enabled"`
	FallbackURLs []string `yaml:"fallback_urls"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the source registry from the YAML config file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewStorageError(ErrStorageRead, "failed to read sources config", err)
	}

	var sf sourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, NewParseError(ErrParseSchema, "failed to parse sources config", err)
	}

	var enabled []Source
	for _, src := range sf.Sources {
		if err := validateSource(src); err != nil {
			return nil, err
		}
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}

	if len(enabled) == 0 {
		return nil, NewParseError(ErrParseSchema, "no enabled sources configured", nil)
	}

	return enabled, nil
}

func validateSource(src Source) error {
	if src.ID == "" || src.Name == "" {
		return NewParseError(ErrParseSchema, "source requires id and name", nil)
	}

	switch src.Kind {
	case "rss":
		if src.URL == "" {
			return NewParseError(ErrParseSchema, fmt.Sprintf("rss source %s requires url", src.ID), nil)
		}
	case "html":
		if src.URL == "" {
			return NewParseError(ErrParseSchema, fmt.Sprintf("html source %s requires url", src.ID), nil)
		}
		if src.Profile == "" {
			return NewParseError(ErrParseSchema, fmt.Sprintf("html source %s requires profile", src.ID), nil)
		}
	case "api":
		if src.API == "" {
			return NewParseError(ErrParseSchema, fmt.Sprintf("api source %s requires api name", src.ID), nil)
		}
	default:
		return NewParseError(ErrParseSchema, fmt.Sprintf("source %s has unknown kind %q", src.ID, src.Kind), nil)
	}

	return nil
}
