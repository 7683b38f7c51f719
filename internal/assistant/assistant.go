// Package assistant answers natural-language questions about a user's ledger.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/genai"
	"fintrack/internal/log"
)

const (
	// Greeting opens every chat session.
	Greeting = "¡Hola! Soy tu asistente financiero. Puedo ayudarte con información sobre tus gastos e ingresos. ¿En qué puedo ayudarte hoy?"

	// Apology replaces any answer that could not be produced.
	Apology = "Lo siento, no pude procesar tu consulta. Por favor, intenta de nuevo."
)

type expenseView struct {
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createAt"`
	Category    string    `json:"category"`
}

type incomeView struct {
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createAt"`
}

// Context is the ledger projection embedded in each prompt.
type Context struct {
	Expenses      []expenseView `json:"expenses"`
	Incomes       []incomeView  `json:"incomes"`
	TotalExpenses float64       `json:"totalExpenses"`
	TotalIncomes  float64       `json:"totalIncomes"`
	Balance       float64       `json:"balance"`
}

// BuildContext projects the ledger. Totals always cover every entry; when
// maxEntries > 0 only the most recent maxEntries of each list are listed.
func BuildContext(expenses []core.Expense, incomes []core.Income, maxEntries int) Context {
	ctx := Context{
		Expenses:      make([]expenseView, 0, len(expenses)),
		Incomes:       make([]incomeView, 0, len(incomes)),
		TotalExpenses: core.SumExpenses(expenses).Float(),
		TotalIncomes:  core.SumIncomes(incomes).Float(),
		Balance:       core.Balance(incomes, expenses).Float(),
	}
	for _, e := range recent(expenses, maxEntries, func(e core.Expense) time.Time { return e.CreatedAt }) {
		ctx.Expenses = append(ctx.Expenses, expenseView{
			Amount:      e.Amount.Float(),
			Description: e.Description,
			CreatedAt:   e.CreatedAt.UTC(),
			Category:    string(e.Category),
		})
	}
	for _, i := range recent(incomes, maxEntries, func(i core.Income) time.Time { return i.CreatedAt }) {
		ctx.Incomes = append(ctx.Incomes, incomeView{
			Amount:      i.Amount.Float(),
			Description: i.Description,
			CreatedAt:   i.CreatedAt.UTC(),
		})
	}
	return ctx
}

// recent returns the newest n entries in chronological order.
func recent[T any](in []T, n int, at func(T) time.Time) []T {
	if n <= 0 || len(in) <= n {
		return in
	}
	out := make([]T, len(in))
	copy(out, in)
	sort.SliceStable(out, func(a, b int) bool { return at(out[a]).Before(at(out[b])) })
	return out[len(out)-n:]
}

// Prompt renders the instruction sent to the model.
func Prompt(data Context, query string) (string, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal chat context: %w", err)
	}
	var b strings.Builder
	b.WriteString("Actúa como un asistente financiero personal.\n\n")
	b.WriteString("Datos financieros del usuario:\n")
	b.Write(raw)
	b.WriteString("\n\nConsulta del usuario: \"")
	b.WriteString(query)
	b.WriteString("\"\n\n")
	b.WriteString("Responde a la consulta del usuario en español de manera amigable y concisa.\n")
	b.WriteString("Ofrece información relevante y útil basada en los datos financieros proporcionados.\n")
	b.WriteString("Si el usuario pide información que no está disponible, indícalo amablemente.\n")
	b.WriteString("Puedes proporcionar consejos financieros útiles cuando sea apropiado, se conciso con tus respuestas pero muy amigable.")
	return b.String(), nil
}

// Assistant is stateless: each Ask sends the full ledger snapshot again.
type Assistant struct {
	gen        genai.Generator
	maxEntries int
	logger     *slog.Logger
}

type Option func(*Assistant)

// WithMaxEntries caps how many entries of each kind are listed in a prompt.
func WithMaxEntries(n int) Option {
	return func(a *Assistant) { a.maxEntries = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

func New(gen genai.Generator, opts ...Option) *Assistant {
	a := &Assistant{gen: gen, logger: slog.Default().With(log.FieldComponent, log.ComponentAssistant)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Ask returns the model's answer to query, or Apology on any failure.
func (a *Assistant) Ask(ctx context.Context, query string, expenses []core.Expense, incomes []core.Income) string {
	prompt, err := Prompt(BuildContext(expenses, incomes, a.maxEntries), query)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to build chat prompt", log.FieldError, err)
		return Apology
	}

	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.WarnContext(ctx, "Chat request failed, using apology",
			log.FieldOperation, log.OpAsk, log.FieldError, err)
		return Apology
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		a.logger.WarnContext(ctx, "Chat response was empty, using apology", log.FieldOperation, log.OpAsk)
		return Apology
	}
	return answer
}
