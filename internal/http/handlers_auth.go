package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"expensetracker/internal/log"
	"expensetracker/internal/remote"
	"expensetracker/internal/session"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session.Guard(s.loadSession(r), s.now()) == session.Allow {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	form := CredentialsForm{Next: safeNext(r.URL.Query().Get("next")), Errors: map[string]string{}}
	s.render(w, r, http.StatusOK, "login.html", page{
		Title: "Sign in",
		Flash: s.popFlash(w, r),
		Data:  form,
	})
}

// handleLogin signs in on a brand new session so a session id seen before
// authentication is never promoted.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "", "Invalid request format")
		return
	}
	form := ParseCredentialsForm(r.PostForm)
	if !form.ValidateLogin() {
		s.render(w, r, http.StatusUnprocessableEntity, "login.html", page{Title: "Sign in", Data: form})
		return
	}

	previous := s.loadSession(r)
	sess := session.New(session.NewID(), s.sessions)
	api := s.newAPI(sess)

	if _, err := api.Login(r.Context(), form.Username, form.Password); err != nil {
		atomic.AddInt64(&s.appMetrics.loginFailures, 1)
		status := http.StatusBadGateway
		if errors.Is(err, remote.ErrAuthentication) || errors.Is(err, remote.ErrValidation) {
			status = http.StatusUnauthorized
		}
		s.logger.WarnContext(r.Context(), "Sign in failed",
			log.NewFields().WithOperation(log.OpLogin).WithUsername(form.Username).WithError(err).ToSlice()...)
		form.Password = ""
		s.render(w, r, status, "login.html", page{Title: "Sign in", Error: remote.Message(err), Data: form})
		return
	}

	if previous.State() == session.StateAuthenticated {
		if err := previous.Clear(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to drop previous session", log.FieldError, err)
		}
	}
	atomic.AddInt64(&s.appMetrics.logins, 1)
	s.setSessionCookie(w, sess)
	http.Redirect(w, r, form.Next, http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if session.Guard(s.loadSession(r), s.now()) == session.Allow {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "register.html", page{
		Title: "Create account",
		Data:  CredentialsForm{Errors: map[string]string{}},
	})
}

// handleRegister creates the account and sends the user to sign in; it
// does not sign in on their behalf.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "", "Invalid request format")
		return
	}
	form := ParseCredentialsForm(r.PostForm)
	if !form.ValidateRegister() {
		form.Password, form.Confirm = "", ""
		s.render(w, r, http.StatusUnprocessableEntity, "register.html", page{Title: "Create account", Data: form})
		return
	}

	api := s.newAPI(session.New("", nil))
	if err := api.Signup(r.Context(), form.Username, form.Email, form.Password); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, remote.ErrValidation) || errors.Is(err, remote.ErrAuthentication) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.WarnContext(r.Context(), "Registration failed",
			log.NewFields().WithOperation(log.OpSignup).WithUsername(form.Username).WithError(err).ToSlice()...)
		form.Password, form.Confirm = "", ""
		s.render(w, r, status, "register.html", page{Title: "Create account", Error: remote.Message(err), Data: form})
		return
	}

	s.setFlash(w, "Account created. Please sign in.")
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.loadSession(r)
	user := username(sess)
	if err := s.newAPI(sess).Logout(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Logout failed to clear stored session", log.FieldError, err)
	} else {
		s.logger.InfoContext(r.Context(), "User signed out",
			log.NewFields().WithOperation(log.OpLogout).WithUsername(user).ToSlice()...)
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}
