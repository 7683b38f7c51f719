package http

import (
	"net/http"
	"unicode/utf8"

	"fintrack/internal/assistant"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const maxQueryLen = 500

// handleChat answers one chat turn. The reply holds the user's bubble and
// the assistant's bubble and is appended to the conversation client-side.
// No history is kept on the server.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user core.User) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	query := p.Get("query")
	if query == "" {
		UnprocessableEntityError("Type a question first").Write(w)
		return
	}
	if utf8.RuneCountInString(query) > maxQueryLen {
		UnprocessableEntityError("Question is too long").Write(w)
		return
	}

	answer, err := s.ledger.Ask(r.Context(), user.ID, query)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Chat turn failed",
			log.FieldOwner, user.ID,
			log.FieldOperation, log.OpAsk,
			log.FieldError, err)
		answer = assistant.Apology
	}

	s.render(w, r, http.StatusOK, "chat_turn", chatTurnView{Query: query, Answer: answer})
}
