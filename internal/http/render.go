package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/remote"
	"expensetracker/internal/session"
	"expensetracker/internal/viewmodel"
	appweb "expensetracker/web"
)

// page is what every template receives.
type page struct {
	Title string
	// Nav marks the active menu entry.
	Nav      string
	Username string
	Flash    string
	Error    string
	Data     any
}

var templateFuncs = template.FuncMap{
	"money": core.FormatAmount,
	"date": func(t core.Timestamp) string {
		return t.DateString()
	},
	"monthName": func(m time.Month) string { return m.String() },
	"add":       func(a, b int) int { return a + b },
	"sortURL": func(q viewmodel.Query, key string) string {
		return listURL(q.WithSort(viewmodel.SortKey(key)))
	},
	"sortMark": func(q viewmodel.Query, key string) string {
		if q.Sort.Key != viewmodel.SortKey(key) {
			return ""
		}
		if q.Sort.Direction == viewmodel.Ascending {
			return "▲"
		}
		return "▼"
	},
	"pageURL": func(q viewmodel.Query, p int) string {
		return listURL(q.WithPage(p))
	},
	"sizeURL": func(q viewmodel.Query, size int) string {
		q.Size = size
		return listURL(q.WithPage(0))
	},
	"isZero":     func(d decimal.Decimal) bool { return d.IsZero() },
	"categories": core.Categories,
	"payments":   core.PaymentMethods,
	"pageSizes":  func() []int { return viewmodel.PageSizes },
}

func listURL(q viewmodel.Query) string {
	if v := q.Values(); len(v) > 0 {
		return "/expenses?" + v.Encode()
	}
	return "/expenses"
}

// parsePages builds one template set per page so every page can define its
// own "content" block on top of the shared layout.
func parsePages() (map[string]*template.Template, error) {
	layout, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout templates: %w", err)
	}
	files, err := fs.Glob(appweb.TemplatesFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list page templates: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := t.ParseFS(appweb.TemplatesFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[path.Base(file)] = t
	}
	return pages, nil
}

// render executes into a buffer first so a template failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.pages[name]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Template not found", "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, user, msg string) {
	s.render(w, r, status, "error.html", page{
		Title:    http.StatusText(status),
		Username: user,
		Error:    msg,
		Data:     struct{ Status int }{status},
	})
}

// handleError is the single place remote failures become responses. A
// rejected credential signs the browser out everywhere and goes to login.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	ctx := r.Context()
	if remote.IsAuthorization(err) {
		s.logger.InfoContext(ctx, "Credential rejected, signing out", log.FieldError, err)
		if clearErr := sess.Clear(ctx); clearErr != nil {
			s.logger.WarnContext(ctx, "Failed to clear session", log.FieldError, clearErr)
		}
		s.clearSessionCookie(w)
		http.Redirect(w, r, session.LoginPath, http.StatusFound)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, remote.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, remote.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, remote.ErrTransport):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	} else {
		log.FromContext(ctx).WarnContext(ctx, "Request failed", log.FieldError, err, log.FieldPath, r.URL.Path)
	}
	s.renderError(w, r, status, username(sess), remote.Message(err))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "", "Page not found")
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusTooManyRequests, "", "Too many attempts. Please wait a minute and try again.")
}
