package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/session"
	"expensetracker/internal/viewmodel"
)

// handleDashboard shows the current month: its total, top categories and
// the latest entries. The three data sets are fetched concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	api := s.newAPI(sess)
	period := ReportPeriod{Year: s.now().Year(), Month: s.now().Month()}
	start, end := period.MonthBounds()

	var (
		monthly    []core.Expense
		all        []core.Expense
		categories []core.CategoryReport
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		monthly, err = api.MonthlyReport(ctx, period.Year, period.Month)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = api.ListExpenses(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = api.CategoryReport(ctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		s.handleError(w, r, sess, err)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", page{
		Title:    "Dashboard",
		Nav:      "dashboard",
		Username: username(sess),
		Flash:    s.popFlash(w, r),
		Data:     viewmodel.BuildDashboard(period.Year, period.Month, monthly, all, categories),
	})
}
