// Package classifier assigns a category to a free-text expense description
// using a generative model, falling back to Other whenever anything goes wrong.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/genai"
	"fintrack/internal/log"
)

// Result is a category together with its display style.
type Result struct {
	Category core.Category
	Icon     string
	Color    string
}

// Fallback is returned for every failed or unrecognised classification.
var Fallback = resultFor(core.Other)

func resultFor(c core.Category) Result {
	st := c.Style()
	return Result{Category: c, Icon: st.Icon, Color: st.Color}
}

// Prompt builds the classification instruction for description.
func Prompt(description string) string {
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	return fmt.Sprintf(
		"Clasifica el siguiente gasto en una de estas categorías: %s. "+
			"Devuelve solo el nombre de la categoría sin explicaciones adicionales: \"%s\"",
		strings.Join(names, ", "), description)
}

// Classifier turns descriptions into categories. It is safe for concurrent use.
type Classifier struct {
	gen    genai.Generator
	cache  cache.Cache[core.Category]
	logger *slog.Logger
}

type Option func(*Classifier)

// WithCache remembers successful classifications keyed by normalized
// description. Fallback results are never cached.
func WithCache(c cache.Cache[core.Category]) Option {
	return func(cl *Classifier) { cl.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Classifier) { cl.logger = l }
}

func New(gen genai.Generator, opts ...Option) *Classifier {
	c := &Classifier{gen: gen, logger: slog.Default().With(log.FieldComponent, log.ComponentClassifier)}
	for _, o := range opts {
		o(c)
	}
	return c
}

func cacheKey(description string) string {
	return strings.ToLower(strings.Join(strings.Fields(description), " "))
}

// Classify never fails: transport errors, malformed responses and names
// outside the category set all yield Fallback.
func (c *Classifier) Classify(ctx context.Context, description string) Result {
	key := cacheKey(description)
	if c.cache != nil {
		if cat, ok := c.cache.Get(key); ok {
			return resultFor(cat)
		}
	}

	text, err := c.gen.Generate(ctx, Prompt(description))
	if err != nil {
		c.logger.WarnContext(ctx, "Expense classification failed, using fallback",
			log.FieldOperation, log.OpClassify, log.FieldError, err)
		return Fallback
	}

	cat, ok := core.ParseCategory(text)
	if !ok {
		c.logger.InfoContext(ctx, "Model returned unknown category, using fallback",
			log.FieldOperation, log.OpClassify, "raw", truncate(strings.TrimSpace(text), 64))
		return Fallback
	}

	if c.cache != nil {
		c.cache.Set(key, cat)
	}
	return resultFor(cat)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
