package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/classifier"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// Classifier assigns a category to an expense description.
type Classifier interface {
	Classify(ctx context.Context, description string) classifier.Result
}

// Assistant answers a question about a ledger.
type Assistant interface {
	Ask(ctx context.Context, query string, expenses []core.Expense, incomes []core.Income) string
}

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishEntryEvent(ctx context.Context, evt amqp.EntryEvent) error
}

// LedgerService orchestrates expense and income operations across storage,
// the classifier, the assistant and the event bus. The owner is always passed
// in by the caller.
type LedgerService struct {
	store      storage.Ledger
	classifier Classifier
	assistant  Assistant
	publisher  Publisher
	summaries  cache.Cache[core.Summary]
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*LedgerService)

// WithPublisher enables entry events. A nil publisher disables them.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSummaryCache memoizes yearly summaries per owner until the owner's
// ledger changes.
func WithSummaryCache(c cache.Cache[core.Summary]) Option {
	return func(s *LedgerService) { s.summaries = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(store storage.Ledger, cl Classifier, as Assistant, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:      store,
		classifier: cl,
		assistant:  as,
		logger:     slog.Default().With(log.FieldComponent, log.ComponentLedger),
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AddExpense validates the input, classifies the description once and saves
// the categorized expense.
func (s *LedgerService) AddExpense(ctx context.Context, owner string, amount core.Money, description string) (core.Expense, error) {
	e := core.Expense{
		OwnerID:     owner,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}.WithCategory(core.Other)
	// Reject bad input before spending a model call on it.
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	res := s.classifier.Classify(ctx, e.Description)
	e = e.WithCategory(res.Category)

	saved, err := s.store.CreateExpense(ctx, owner, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.changed(ctx, amqp.NewEntryEvent(amqp.EntryCreated, amqp.KindExpense, saved.ID, owner))
	return saved, nil
}

func (s *LedgerService) AddIncome(ctx context.Context, owner string, amount core.Money, description string) (core.Income, error) {
	in := core.Income{
		OwnerID:     owner,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}

	saved, err := s.store.CreateIncome(ctx, owner, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	s.changed(ctx, amqp.NewEntryEvent(amqp.EntryCreated, amqp.KindIncome, saved.ID, owner))
	return saved, nil
}

// DeleteExpense removes one of owner's expenses. Entries owned by someone
// else report storage.ErrNotFound.
func (s *LedgerService) DeleteExpense(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed(ctx, amqp.NewEntryEvent(amqp.EntryDeleted, amqp.KindExpense, id, owner))
	return nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, owner, id string) error {
	if err := s.store.DeleteIncome(ctx, owner, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.changed(ctx, amqp.NewEntryEvent(amqp.EntryDeleted, amqp.KindIncome, id, owner))
	return nil
}

// Snapshot loads both of owner's lists concurrently.
func (s *LedgerService) Snapshot(ctx context.Context, owner string) (core.Ledger, error) {
	var l core.Ledger
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l.Expenses, err = s.store.ListExpenses(gctx, owner)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		l.Incomes, err = s.store.ListIncomes(gctx, owner)
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Ledger{}, err
	}
	return l, nil
}

// Summary aggregates owner's ledger for year.
func (s *LedgerService) Summary(ctx context.Context, owner string, year int) (core.Summary, error) {
	key := summaryKey(owner, year)
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(key); ok {
			return sum, nil
		}
	}

	l, err := s.Snapshot(ctx, owner)
	if err != nil {
		return core.Summary{}, err
	}
	sum := l.Summarize(year)
	if s.summaries != nil {
		s.summaries.Set(key, sum)
	}
	return sum, nil
}

// Ask answers query using owner's current ledger. Failures inside the
// assistant come back as its apology text; only storage errors are returned.
func (s *LedgerService) Ask(ctx context.Context, owner, query string) (string, error) {
	l, err := s.Snapshot(ctx, owner)
	if err != nil {
		return "", err
	}
	return s.assistant.Ask(ctx, query, l.Expenses, l.Incomes), nil
}

// Classify exposes the classifier without storing anything.
func (s *LedgerService) Classify(ctx context.Context, description string) classifier.Result {
	return s.classifier.Classify(ctx, description)
}

// Year is the current calendar year according to the service clock.
func (s *LedgerService) Year() int { return s.now().Year() }

func summaryKey(owner string, year int) string {
	return owner + ":" + strconv.Itoa(year)
}

// changed drops cached summaries and publishes evt. Publish errors are
// logged only; the entry is already stored.
func (s *LedgerService) changed(ctx context.Context, evt amqp.EntryEvent) {
	if s.summaries != nil {
		s.summaries.DeletePrefix(evt.OwnerID + ":")
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryEvent(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			log.FieldEntryID, evt.ID,
			"kind", evt.Kind,
			"type", evt.Type,
			log.FieldError, err)
	}
}
