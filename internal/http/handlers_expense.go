package http

import (
	"fmt"
	"html/template"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleCreateExpense parses amount and description, lets the ledger
// classify and store the expense, and answers with a confirmation fragment.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	form, err := ParseEntryForm(p)
	if err != nil {
		entryError(err).Write(w)
		return
	}

	exp, err := s.ledger.AddExpense(r.Context(), user.ID, form.Amount, form.Description)
	if err != nil {
		if !core.ValidationError(err) {
			log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
				"Failed to save expense", err, log.ComponentHTTP, log.OpCreate,
				log.NewFields().WithOwner(user.ID).WithEntry("expense", "", form.Amount.Cents, ""))
		}
		entryError(err).Write(w)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogEntryCreated(r.Context(), user.ID, "expense", exp.ID, exp.Amount.Cents, string(exp.Category))

	msg := fmt.Sprintf("Saved %s for %s as %s", exp.Amount, exp.Description, exp.Category)
	NewHTMXResponse().
		TriggerExpenseCreated(exp.ID, string(exp.Category)).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

// handleDeleteExpense removes one of the user's expenses. The empty 200 body
// lets htmx swap the list item away.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	id := p.Get("id")
	if id == "" {
		BadRequestError("Missing entry id").Write(w)
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), user.ID, id); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete expense",
			log.FieldOwner, user.ID,
			log.FieldEntryID, id,
			log.FieldOperation, log.OpDelete,
			log.FieldError, err)
		entryError(err).TriggerErrorNotification("Could not delete the expense").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}
