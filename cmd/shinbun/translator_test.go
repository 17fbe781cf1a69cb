package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslationKey(t *testing.T) {
	assert.Equal(t, "openai-introducing-gpt-5", translationKey("openai", "Introducing GPT-5!"))
	assert.Equal(t, "openai-hello-world", translationKey("openai", "Hello,   World?"))

	// Key slug caps at 50 chars regardless of title length.
	long := translationKey("arxiv", "a very long title that keeps going and going and going and going past any reasonable length")
	assert.LessOrEqual(t, len(long), len("arxiv-")+TranslationKeyMaxLen)
}

func TestLooksTranslatable(t *testing.T) {
	assert.True(t, looksTranslatable("Introducing structured outputs in the API and beyond"))
	assert.False(t, looksTranslatable("机器之心发布最新大模型评测报告"))
	assert.False(t, looksTranslatable(""))
	assert.False(t, looksTranslatable("GPT-5 详解:架构、训练与评测的全部细节都在这里了"))
	// Too few letters to be confident.
	assert.False(t, looksTranslatable("v2.6.0"))
}

// fakeTranslator records calls and returns canned translations.
type fakeTranslator struct {
	calls   int
	batches [][]string
	fail    bool
}

func (f *fakeTranslator) Translate(_ context.Context, texts []string, _ string) ([]string, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.fail {
		return nil, errors.New("upstream down")
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "译:" + text
	}
	return out, nil
}

func englishSnapshot() SourceSnapshot {
	return successSnapshot(
		Source{ID: "openai", Name: "OpenAI Blog", URL: "https://openai.com"},
		[]Article{
			{Title: "Introducing structured outputs in the API and beyond", URL: "https://openai.com/a"},
			{Title: "Scaling laws revisited for sparse architectures", URL: "https://openai.com/b"},
		},
	)
}

func TestTranslateSnapshotPopulatesCache(t *testing.T) {
	fake := &fakeTranslator{}
	manager := NewTranslationManager(fake, NewTranslationCache(), "zh")

	n := manager.TranslateSnapshot(context.Background(), englishSnapshot())
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, fake.calls)

	key := translationKey("openai", "Introducing structured outputs in the API and beyond")
	assert.Equal(t, "译:Introducing structured outputs in the API and beyond", manager.cache.Translations[key])
}

func TestTranslateSnapshotIdempotent(t *testing.T) {
	fake := &fakeTranslator{}
	manager := NewTranslationManager(fake, NewTranslationCache(), "zh")

	require.Equal(t, 2, manager.TranslateSnapshot(context.Background(), englishSnapshot()))

	// Second pass over the same snapshot: everything cached, zero calls.
	assert.Equal(t, 0, manager.TranslateSnapshot(context.Background(), englishSnapshot()))
	assert.Equal(t, 1, fake.calls)
}

func TestTranslateSnapshotSkipsNonLatinTitles(t *testing.T) {
	fake := &fakeTranslator{}
	manager := NewTranslationManager(fake, NewTranslationCache(), "zh")

	snap := successSnapshot(
		Source{ID: "jiqizhixin", Name: "机器之心"},
		[]Article{{Title: "机器之心发布最新大模型评测报告", URL: "https://example.com/a"}},
	)

	assert.Equal(t, 0, manager.TranslateSnapshot(context.Background(), snap))
	assert.Equal(t, 0, fake.calls)
}

func TestTranslateSnapshotBatchFailureLeavesKeysAbsent(t *testing.T) {
	fake := &fakeTranslator{fail: true}
	cache := NewTranslationCache()
	manager := NewTranslationManager(fake, cache, "zh")

	assert.Equal(t, 0, manager.TranslateSnapshot(context.Background(), englishSnapshot()))
	assert.Empty(t, cache.Translations)

	// The failed titles retry on the next run.
	fake.fail = false
	assert.Equal(t, 2, manager.TranslateSnapshot(context.Background(), englishSnapshot()))
}

func TestTranslateSnapshotBatching(t *testing.T) {
	fake := &fakeTranslator{}
	manager := NewTranslationManager(fake, NewTranslationCache(), "zh")
	manager.batchSize = 2

	articles := []Article{
		{Title: "First headline about transformer architectures today", URL: "u1"},
		{Title: "Second headline about retrieval augmented systems", URL: "u2"},
		{Title: "Third headline about evaluation methodology debates", URL: "u3"},
	}
	snap := successSnapshot(Source{ID: "openai", Name: "OpenAI Blog"}, articles)

	assert.Equal(t, 3, manager.TranslateSnapshot(context.Background(), snap))
	require.Equal(t, 2, fake.calls)
	assert.Len(t, fake.batches[0], 2)
	assert.Len(t, fake.batches[1], 1)
}

func TestDeepLTranslatorRequestShape(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"translations":[{"text":"第一"},{"text":"第二"}]}`)
	}))
	defer server.Close()

	tr := &DeepLTranslator{client: server.Client(), apiURL: server.URL, authKey: "secret"}
	out, err := tr.Translate(context.Background(), []string{"first", "second"}, "zh")
	require.NoError(t, err)

	assert.Equal(t, "DeepL-Auth-Key secret", gotAuth)
	assert.Equal(t, "ZH", gotBody["target_lang"])
	assert.Equal(t, []string{"第一", "第二"}, out)
}

func TestDeepLTranslatorCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"translations":[{"text":"只有一个"}]}`)
	}))
	defer server.Close()

	tr := &DeepLTranslator{client: server.Client(), apiURL: server.URL, authKey: "k"}
	_, err := tr.Translate(context.Background(), []string{"first", "second"}, "zh")
	require.Error(t, err)
}

func TestDeepLTranslatorHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", 456)
	}))
	defer server.Close()

	tr := &DeepLTranslator{client: server.Client(), apiURL: server.URL, authKey: "k"}
	_, err := tr.Translate(context.Background(), []string{"first"}, "zh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "456")
}

func TestLookupFallsBackToOriginal(t *testing.T) {
	manager := NewTranslationManager(nil, NewTranslationCache(), "zh")
	assert.Equal(t, "Untranslated title", manager.Lookup("openai", "Untranslated title"))
}
