package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"expensetracker/internal/log"
	"expensetracker/internal/session"
)

const (
	sessionCookieName = "expense_session"
	flashCookieName   = "expense_flash"
)

// sessionHandler is a page handler that runs only for signed-in sessions.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// loadSession returns the session named by the request cookie, or a fresh
// unsaved one. A store failure is logged and treated as signed out.
func (s *Server) loadSession(r *http.Request) *session.Session {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			sess, err := session.Restore(r.Context(), c.Value, s.sessions)
			if err == nil {
				return sess
			}
			log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to restore session", log.FieldError, err)
		}
	}
	return session.New(session.NewID(), s.sessions)
}

// requireAuth evaluates the guard on every request and sends signed-out or
// expired sessions to the login page.
func (s *Server) requireAuth(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(r)
		if session.Guard(sess, s.now()) == session.Redirect {
			if _, held := sess.Credential(); held {
				if err := sess.Clear(r.Context()); err != nil {
					s.logger.WarnContext(r.Context(), "Failed to clear expired session", log.FieldError, err)
				}
			}
			s.clearSessionCookie(w)
			http.Redirect(w, r, loginURL(r), http.StatusFound)
			return
		}
		next(w, r, sess)
	}
}

// loginURL sends the user back to the page they asked for after signing in.
func loginURL(r *http.Request) string {
	if r.Method != http.MethodGet || r.URL.Path == "/" {
		return session.LoginPath
	}
	return session.LoginPath + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
}

// safeNext accepts only same-site absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.ID(),
		Path:     "/",
		MaxAge:   int(s.opts.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlash leaves a one-shot notice for the next page.
func (s *Server) setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.opts.CookieSecure})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

func username(sess *session.Session) string {
	cred, _ := sess.Credential()
	return cred.Username
}
