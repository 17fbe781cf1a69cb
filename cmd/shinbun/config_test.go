package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSourcesFiltersDisabled(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: active
    name: Active Feed
    url: https://example.com/rss
    kind: rss
    enabled: true
  - id: dormant
    name: Dormant Feed
    url: https://example.com/other
    kind: rss
    enabled: false
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "active", sources[0].ID)
}

func TestLoadSourcesValidatesKinds(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown kind",
			yaml: `
sources:
  - id: x
    name: X
    url: https://example.com
    kind: carrier-pigeon
    enabled: true
`,
			wantErr: "unknown kind",
		},
		{
			name: "html without profile",
			yaml: `
sources:
  - id: x
    name: X
    url: https://example.com
    kind: html
    enabled: true
`,
			wantErr: "requires profile",
		},
		{
			name: "api without adapter name",
			yaml: `
sources:
  - id: x
    name: X
    kind: api
    enabled: true
`,
			wantErr: "requires api name",
		},
		{
			name: "rss without url",
			yaml: `
sources:
  - id: x
    name: X
    kind: rss
    enabled: true
`,
			wantErr: "requires url",
		},
		{
			name: "missing id",
			yaml: `
sources:
  - name: X
    url: https://example.com
    kind: rss
    enabled: true
`,
			wantErr: "requires id and name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSources(writeSourcesFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSourcesNoneEnabled(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - id: x
    name: X
    url: https://example.com
    kind: rss
    enabled: false
`)

	_, err := LoadSources(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no enabled sources")
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsBadTargetLang(t *testing.T) {
	t.Setenv("TARGET_LANG", "not a language tag")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TARGET_LANG")
}

func TestLoadConfigRejectsUnknownTranslator(t *testing.T) {
	t.Setenv("TRANSLATOR_ENGINE", "babelfish")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSLATOR_ENGINE")
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, 60, cfg.UpdateIntervalMinutes)
	assert.Equal(t, "@hourly", cfg.UpdateCron)
	assert.Equal(t, "deepl", cfg.Translator)
	assert.Equal(t, DefaultTargetLanguage, cfg.TargetLang)
}

func TestNewTranslatorSelection(t *testing.T) {
	assert.Nil(t, NewTranslator(&Config{Translator: "none"}))
	assert.Nil(t, NewTranslator(&Config{Translator: "deepl"}))
	assert.Nil(t, NewTranslator(&Config{Translator: "openai"}))

	assert.IsType(t, &DeepLTranslator{}, NewTranslator(&Config{Translator: "deepl", DeepLAuthKey: "k"}))
	assert.IsType(t, &OpenAITranslator{}, NewTranslator(&Config{Translator: "openai", OpenAIAPIKey: "k"}))
}
