package http

import (
	"fmt"
	"html/template"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request, user core.User) {
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

	in, err := s.ledger.AddIncome(r.Context(), user.ID, form.Amount, form.Description)
	if err != nil {
		if !core.ValidationError(err) {
			log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
				"Failed to save income", err, log.ComponentHTTP, log.OpCreate,
				log.NewFields().WithOwner(user.ID).WithEntry("income", "", form.Amount.Cents, ""))
		}
		entryError(err).Write(w)
		return
	}

	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogEntryCreated(r.Context(), user.ID, "income", in.ID, in.Amount.Cents, "")

	msg := fmt.Sprintf("Saved income of %s for %s", in.Amount, in.Description)
	NewHTMXResponse().
		TriggerIncomeCreated(in.ID).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		BodyHTML(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`).
		Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request, user core.User) {
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

	if err := s.ledger.DeleteIncome(r.Context(), user.ID, id); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete income",
			log.FieldOwner, user.ID,
			log.FieldEntryID, id,
			log.FieldOperation, log.OpDelete,
			log.FieldError, err)
		entryError(err).TriggerErrorNotification("Could not delete the income").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerIncomeDeleted(id).
		TriggerSuccessNotification("Income deleted").
		Write(w)
}
