package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Translator is the batched external translation call: text array in,
// translated array out, positionally aligned. Implementations must not
// panic; a failed call returns an error and the caller falls back to the
// original text.
type Translator interface {
	Translate(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

// NewTranslator selects the configured engine. "none" disables translation
// entirely (the cache is still loaded and persisted untouched).
func NewTranslator(cfg *Config) Translator {
	switch cfg.Translator {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil
		}
		return &OpenAITranslator{client: openai.NewClient(cfg.OpenAIAPIKey)}
	case "deepl":
		if cfg.DeepLAuthKey == "" {
			return nil
		}
		return &DeepLTranslator{
			client:  &http.Client{Timeout: FetchTimeout},
			apiURL:  cfg.DeepLAPIURL,
			authKey: cfg.DeepLAuthKey,
		}
	default:
		return nil
	}
}

// DeepLTranslator calls the DeepL v2 REST endpoint. The free tier caps a
// single call at 50 texts; TranslateTitles batches accordingly.
type DeepLTranslator struct {
	client  *http.Client
	apiURL  string
	authKey string
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends one batch to DeepL.
func (t *DeepLTranslator) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"text":        texts,
		"target_lang": strings.ToUpper(targetLang),
	})
	if err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "failed to create request", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+t.authKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "deepl request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFeedBodyBytes))
	if err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "failed to read deepl response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewTranslateError(ErrTranslateCall, fmt.Sprintf("deepl returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200)), nil)
	}

	var dr deeplResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "invalid deepl response", err)
	}
	if len(dr.Translations) != len(texts) {
		return nil, NewTranslateError(ErrTranslateEmpty, fmt.Sprintf("deepl returned %d translations for %d texts", len(dr.Translations), len(texts)), nil)
	}

	out := make([]string, len(texts))
	for i, tr := range dr.Translations {
		out[i] = tr.Text
	}
	return out, nil
}

// OpenAITranslator translates a batch through a chat completion, one line
// per title. Positional alignment is enforced by numbering.
type OpenAITranslator struct {
	client *openai.Client
}

// Translate sends one batch through the chat API.
func (t *OpenAITranslator) Translate(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var b strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate each numbered news headline into %s. "+
					"Reply with the same numbered list, one translation per line, nothing else.", targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: b.String(),
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, NewTranslateError(ErrTranslateCall, "openai request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewTranslateError(ErrTranslateEmpty, "openai returned no choices", nil)
	}

	out := make([]string, len(texts))
	lineRe := regexp.MustCompile(`^\s*(\d+)[.)]\s*(.+)$`)
	matched := 0
	for _, line := range strings.Split(resp.Choices[0].Message.Content, "\n") {
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var idx int
		fmt.Sscanf(m[1], "%d", &idx)
		if idx >= 1 && idx <= len(texts) && out[idx-1] == "" {
			out[idx-1] = strings.TrimSpace(m[2])
			matched++
		}
	}
	if matched != len(texts) {
		return nil, NewTranslateError(ErrTranslateEmpty, fmt.Sprintf("openai aligned %d of %d translations", matched, len(texts)), nil)
	}

	return out, nil
}

var nonWordRun = regexp.MustCompile(`[^\w\s-]`)

// translationKey derives the stable cache key for a (source, title) pair:
// lowercase, strip non-word characters, collapse whitespace to hyphens,
// cap at 50 chars. Deterministic, so repeated runs never re-translate an
// unchanged title.
func translationKey(sourceID, title string) string {
	slug := strings.ToLower(title)
	slug = nonWordRun.ReplaceAllString(slug, "")
	slug = whitespaceRun.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = truncate(slug, TranslationKeyMaxLen)
	return sourceID + "-" + slug
}

// looksTranslatable is the heuristic "looks foreign" detector: more than
// 10 Latin letters and CJK characters under 10% of the title length.
// Approximate on purpose; marginal false negatives just stay untranslated.
func looksTranslatable(text string) bool {
	runes := []rune(text)
	if len(runes) == 0 {
		return false
	}

	latin, cjk := 0, 0
	for _, r := range runes {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		case r >= 0x4E00 && r <= 0x9FA5:
			cjk++
		}
	}

	return latin > 10 && float64(cjk) < float64(len(runes))*0.1
}

// TranslationManager owns the persistent title-translation cache for one
// pipeline run: loaded at run start, mutated in memory, persisted at run
// end. No implicit global state.
type TranslationManager struct {
	translator Translator
	cache      *TranslationCache
	targetLang string
	batchSize  int
	limiter    *rate.Limiter
}

// NewTranslationManager wires the engine, the loaded cache and the
// inter-batch rate limit.
func NewTranslationManager(translator Translator, cache *TranslationCache, targetLang string) *TranslationManager {
	return &TranslationManager{
		translator: translator,
		cache:      cache,
		targetLang: targetLang,
		batchSize:  TranslationBatchSize,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// Cache exposes the managed cache for persistence at run end.
func (m *TranslationManager) Cache() *TranslationCache {
	return m.cache
}

// TranslateSnapshot translates new titles from one foreign-language
// source's snapshot into the cache. Returns the number of titles newly
// translated. A batch failure falls back to the original text for that
// batch and leaves the keys absent, so they retry on a later run — the
// cache only ever grows with real translations.
func (m *TranslationManager) TranslateSnapshot(ctx context.Context, snap SourceSnapshot) int {
	if m.translator == nil {
		return 0
	}

	var titles []string
	var keys []string
	for _, article := range snap.Articles {
		key := translationKey(snap.SourceID, article.Title)
		if _, ok := m.cache.Translations[key]; ok {
			continue
		}
		if !looksTranslatable(article.Title) {
			continue
		}
		titles = append(titles, article.Title)
		keys = append(keys, key)
	}

	if len(titles) == 0 {
		return 0
	}

	Logger().Info("translating %d new titles from %s", len(titles), snap.SourceID)

	translated := 0
	for start := 0; start < len(titles); start += m.batchSize {
		end := start + m.batchSize
		if end > len(titles) {
			end = len(titles)
		}

		if err := m.limiter.Wait(ctx); err != nil {
			return translated
		}

		results, err := m.translator.Translate(ctx, titles[start:end], m.targetLang)
		if err != nil {
			// Localized failure: this batch keeps its original titles and
			// stays out of the cache for a retry next run.
			Logger().Warning("translation batch failed for %s: %v", snap.SourceID, err)
			continue
		}

		for i, text := range results {
			if strings.TrimSpace(text) == "" {
				continue
			}
			m.cache.Translations[keys[start+i]] = text
			translated++
		}
	}

	return translated
}

// Lookup returns the cached translation for a title, or the original text.
func (m *TranslationManager) Lookup(sourceID, title string) string {
	if text, ok := m.cache.Translations[translationKey(sourceID, title)]; ok {
		return text
	}
	return title
}
