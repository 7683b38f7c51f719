package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/genai"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func TestPrompt(t *testing.T) {
	p := Prompt("Cena en restaurante")
	assert.Contains(t, p, "Food, Transport, Entertainment, Shopping, Other")
	assert.Contains(t, p, "sin explicaciones adicionales")
	assert.Contains(t, p, `"Cena en restaurante"`)

	quoted := Prompt(`Cena "especial"`)
	assert.True(t, strings.HasSuffix(quoted, `: "Cena "especial""`), quoted)
	assert.NotContains(t, quoted, `\"`)
}

func TestClassify_KnownCategories(t *testing.T) {
	tests := []struct {
		raw  string
		want Result
	}{
		{"Food", Result{core.Food, "utensils", "#ff5733"}},
		{" Transport\n", Result{core.Transport, "bus", "#ffbd33"}},
		{"Entertainment", Result{core.Entertainment, "film", "#3380ff"}},
		{"Shopping", Result{core.Shopping, "shopping-cart", "#33ff57"}},
		{"  Food \n", Result{core.Food, "utensils", "#ff5733"}},
		{"Other", Result{core.Other, "question", "#777"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := New(&fakeGenerator{text: tt.raw})
			assert.Equal(t, tt.want, c.Classify(context.Background(), "anything"))
		})
	}
}

func TestClassify_AlwaysReturnsMember(t *testing.T) {
	outputs := []string{"", "Bills", "La categoría es Food", "Food.", "🍔", "null", "Groceries\nFood", "food", "SHOPPING", "tRANSPORT"}
	for _, raw := range outputs {
		got := New(&fakeGenerator{text: raw}).Classify(context.Background(), "x")
		assert.True(t, got.Category.Valid(), "raw %q gave %q", raw, got.Category)
		assert.Equal(t, Fallback, got, "raw %q", raw)
	}
}

func TestClassify_ErrorYieldsFallback(t *testing.T) {
	c := New(&fakeGenerator{err: errors.New("dial tcp: connection refused")})
	assert.Equal(t, Result{core.Other, "question", "#777"}, c.Classify(context.Background(), "taxi"))
}

func TestClassify_NetworkFailureAgainstRealClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	gen := genai.NewClient(genai.Config{APIKey: "k", Endpoint: url, Timeout: time.Second})
	got := New(gen).Classify(context.Background(), "bus ticket")
	assert.Equal(t, Result{Category: core.Other, Icon: "question", Color: "#777"}, got)
}

func TestClassify_MissingKeyYieldsFallback(t *testing.T) {
	got := New(genai.NewClient(genai.Config{})).Classify(context.Background(), "bus ticket")
	assert.Equal(t, Fallback, got)
}

func TestClassify_CachesSuccessOnly(t *testing.T) {
	gen := &fakeGenerator{text: "Transport"}
	lru := cache.NewLRUCache[core.Category](10, time.Hour)
	c := New(gen, WithCache(lru))

	require.Equal(t, core.Transport, c.Classify(context.Background(), "Uber  to airport").Category)
	require.Equal(t, core.Transport, c.Classify(context.Background(), "uber to AIRPORT").Category)
	assert.Equal(t, 1, gen.calls())

	gen.err = errors.New("boom")
	assert.Equal(t, Fallback, c.Classify(context.Background(), "cinema"))
	assert.Equal(t, Fallback, c.Classify(context.Background(), "cinema"))
	assert.Equal(t, 3, gen.calls())
	assert.Equal(t, 1, lru.Size())
}
