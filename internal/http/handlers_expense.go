package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"expensetracker/internal/remote"
	"expensetracker/internal/services"
	"expensetracker/internal/session"
	"expensetracker/internal/viewmodel"
)

type expenseFormPage struct {
	// ID is zero for a new expense.
	ID   int64
	Form ExpenseForm
}

func (p expenseFormPage) Action() string {
	if p.ID == 0 {
		return "/expenses"
	}
	return "/expenses/" + strconv.FormatInt(p.ID, 10)
}

func (s *Server) expenseService(sess *session.Session) *services.ExpenseService {
	return services.NewExpenseService(s.newAPI(sess), s.publisher, username(sess), s.logger)
}

// handleListExpenses fetches the full list and lets the view-model derive
// the requested page from the query string.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	all, err := s.newAPI(sess).ListExpenses(r.Context())
	if err != nil {
		s.handleError(w, r, sess, err)
		return
	}
	query := viewmodel.ParseQuery(r.URL.Query(), s.opts.DefaultPageSize)
	view := viewmodel.Apply(all, query)

	s.render(w, r, http.StatusOK, "expenses.html", page{
		Title:    "Expenses",
		Nav:      "expenses",
		Username: username(sess),
		Flash:    s.popFlash(w, r),
		Data:     view,
	})
}

func (s *Server) handleNewExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	s.renderExpenseForm(w, r, sess, http.StatusOK, expenseFormPage{Form: NewExpenseForm(s.now())}, "")
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, username(sess), "Invalid request format")
		return
	}
	form := ParseExpenseForm(r.PostForm)
	in, ok := form.Input()
	if !ok {
		s.renderExpenseForm(w, r, sess, http.StatusUnprocessableEntity, expenseFormPage{Form: form}, "")
		return
	}

	if _, err := s.expenseService(sess).Create(r.Context(), in); err != nil {
		if errors.Is(err, remote.ErrValidation) {
			s.renderExpenseForm(w, r, sess, http.StatusUnprocessableEntity, expenseFormPage{Form: form}, remote.Message(err))
			return
		}
		s.handleError(w, r, sess, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.mutations, 1)
	s.setFlash(w, "Expense added")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id, ok := parseExpenseID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, username(sess), "Expense not found")
		return
	}
	e, err := s.newAPI(sess).GetExpense(r.Context(), id)
	if err != nil {
		s.handleError(w, r, sess, err)
		return
	}
	s.renderExpenseForm(w, r, sess, http.StatusOK, expenseFormPage{ID: id, Form: ExpenseFormFrom(e)}, "")
}

// handleUpdateExpense sends every form field; a stale or deleted expense
// takes the user back to the list with a notice.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id, ok := parseExpenseID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, username(sess), "Expense not found")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, username(sess), "Invalid request format")
		return
	}
	form := ParseExpenseForm(r.PostForm)
	in, ok := form.Input()
	if !ok {
		s.renderExpenseForm(w, r, sess, http.StatusUnprocessableEntity, expenseFormPage{ID: id, Form: form}, "")
		return
	}

	_, err := s.expenseService(sess).Update(r.Context(), id, in.Patch())
	switch {
	case err == nil:
	case errors.Is(err, remote.ErrValidation):
		s.renderExpenseForm(w, r, sess, http.StatusUnprocessableEntity, expenseFormPage{ID: id, Form: form}, remote.Message(err))
		return
	case errors.Is(err, remote.ErrNotFound):
		s.setFlash(w, remote.Message(err))
		http.Redirect(w, r, "/expenses", http.StatusSeeOther)
		return
	default:
		s.handleError(w, r, sess, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.mutations, 1)
	s.setFlash(w, "Expense updated")
	http.Redirect(w, r, "/expenses", http.StatusSeeOther)
}

// handleDeleteExpense removes one expense. Deleting an expense that is
// already gone is reported on the refreshed list, not as an error page.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	id, ok := parseExpenseID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, username(sess), "Expense not found")
		return
	}
	back := safeNext(r.FormValue("back"))
	if back == "/" {
		back = "/expenses"
	}

	err := s.expenseService(sess).Delete(r.Context(), id)
	switch {
	case err == nil:
		atomic.AddInt64(&s.appMetrics.mutations, 1)
		s.setFlash(w, "Expense deleted")
	case errors.Is(err, remote.ErrNotFound):
		s.setFlash(w, remote.Message(err))
	default:
		s.handleError(w, r, sess, err)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) renderExpenseForm(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, p expenseFormPage, errMsg string) {
	title := "New expense"
	if p.ID != 0 {
		title = "Edit expense"
	}
	if p.Form.Errors == nil {
		p.Form.Errors = map[string]string{}
	}
	s.render(w, r, status, "expense_form.html", page{
		Title:    title,
		Nav:      "expenses",
		Username: username(sess),
		Error:    errMsg,
		Data:     p,
	})
}
