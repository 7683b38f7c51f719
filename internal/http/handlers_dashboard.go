package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/assistant"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}

	year := ParseYear(r.URL.Query(), s.ledger.Year())
	sum, l, err := s.loadDashboard(r.Context(), user.ID, year)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard load failed",
			log.FieldOwner, user.ID,
			log.FieldYear, year,
			log.FieldError, err)
		InternalServerError("Could not load your ledger, please try again").Write(w)
		return
	}

	s.render(w, r, http.StatusOK, "index.html", dashboardView{
		User:     user,
		Year:     year,
		Summary:  newSummaryView(sum),
		Entries:  newEntriesView(l),
		Greeting: assistant.Greeting,
	})
}

// loadDashboard fetches the summary and the entry lists concurrently.
func (s *Server) loadDashboard(ctx context.Context, owner string, year int) (core.Summary, core.Ledger, error) {
	var (
		sum core.Summary
		l   core.Ledger
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sum, err = s.ledger.Summary(gctx, owner, year)
		return err
	})
	g.Go(func() error {
		var err error
		l, err = s.ledger.Snapshot(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, core.Ledger{}, err
	}
	return sum, l, nil
}

// handleSummaryPartial renders balance, category breakdown and monthly bars.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request, user core.User) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	year := ParseYear(r.URL.Query(), s.ledger.Year())
	sum, err := s.ledger.Summary(r.Context(), user.ID, year)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary load failed",
			log.FieldOwner, user.ID, log.FieldYear, year, log.FieldError, err)
		InternalServerError("Could not load the summary").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "summary", newSummaryView(sum))
}

// handleEntriesPartial renders the expense and income lists.
func (s *Server) handleEntriesPartial(w http.ResponseWriter, r *http.Request, user core.User) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	l, err := s.ledger.Snapshot(r.Context(), user.ID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Entries load failed",
			log.FieldOwner, user.ID, log.FieldError, err)
		InternalServerError("Could not load your entries").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "entries", newEntriesView(l))
}

// handleSummaryJSON serves the summary for chart clients.
func (s *Server) handleSummaryJSON(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	year := ParseYear(r.URL.Query(), s.ledger.Year())
	sum, err := s.ledger.Summary(r.Context(), user.ID, year)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary load failed",
			log.FieldOwner, user.ID, log.FieldYear, year, log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not load summary"})
		return
	}
	writeJSON(w, http.StatusOK, newSummaryJSON(sum))
}
