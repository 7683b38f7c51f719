package http

import (
	"errors"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

// handleLogin shows the sign-in page. In dev mode a POST signs in with the
// submitted email.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	devMode := s.auth.Mode() == auth.ModeDev

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if _, err := s.auth.CurrentUser(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, r, http.StatusOK, "login.html", loginView{DevMode: devMode})

	case http.MethodPost:
		p, resp := ParseBodyOrFail(r)
		if resp != nil {
			resp.Write(w)
			return
		}
		email := p.Get("email")
		u, err := s.auth.DevLogin(r.Context(), w, email)
		switch {
		case errors.Is(err, auth.ErrWrongMode):
			MethodNotAllowedError(http.MethodGet).Write(w)
			return
		case errors.Is(err, auth.ErrInvalidEmail):
			s.render(w, r, http.StatusUnprocessableEntity, "login.html",
				loginView{DevMode: true, Email: email, Error: "Enter a valid email address"})
			return
		case err != nil:
			s.logger.ErrorContext(r.Context(), "Dev login failed",
				log.FieldOperation, log.OpLogin, log.FieldError, err)
			s.render(w, r, http.StatusInternalServerError, "login.html",
				loginView{DevMode: true, Email: email, Error: "Could not sign you in, please try again"})
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "User signed in",
			log.FieldOwner, u.ID, log.FieldOperation, log.OpLogin)
		s.redirectHome(w, r)

	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleGoogleLogin starts the OAuth code flow.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	url, err := s.auth.BeginLogin(w)
	if errors.Is(err, auth.ErrWrongMode) {
		NotFoundError("Google sign-in is not enabled").Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Could not start Google sign-in",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		InternalServerError("Could not start sign-in").Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleCallback completes the OAuth code flow.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	u, err := s.auth.CompleteLogin(r.Context(), w, r)
	switch {
	case errors.Is(err, auth.ErrWrongMode):
		NotFoundError("Google sign-in is not enabled").Write(w)
		return
	case errors.Is(err, auth.ErrInvalidState):
		s.render(w, r, http.StatusBadRequest, "login.html",
			loginView{Error: "Your sign-in attempt expired, please try again"})
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Google sign-in failed",
			log.FieldOperation, log.OpLogin, log.FieldError, err)
		s.render(w, r, http.StatusBadGateway, "login.html",
			loginView{Error: "Google sign-in failed, please try again"})
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "User signed in",
		log.FieldOwner, u.ID, log.FieldOperation, log.OpLogin)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.auth.Logout(r.Context(), w, r); err != nil {
		s.logger.ErrorContext(r.Context(), "Logout failed", log.FieldError, err)
	}
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/auth/login").Write(w)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
