package http

import (
	"bytes"
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
	"expensetracker/internal/remote"
	"expensetracker/internal/session"
	"expensetracker/internal/viewmodel"
)

type reportPage struct {
	Report viewmodel.Report
	Years  []option
	Months []option
}

// fetchReport loads the month, the year and the year's category breakdown
// concurrently.
func (s *Server) fetchReport(ctx context.Context, api remote.ReportReader, period ReportPeriod) (viewmodel.Report, error) {
	start, end := period.YearBounds()

	var (
		monthly    []core.Expense
		yearly     []core.Expense
		categories []core.CategoryReport
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthly, err = api.MonthlyReport(ctx, period.Year, period.Month)
		return err
	})
	g.Go(func() error {
		var err error
		yearly, err = api.YearlyReport(ctx, period.Year)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = api.CategoryReport(ctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return viewmodel.Report{}, err
	}
	return viewmodel.BuildReport(period.Year, period.Month, monthly, yearly, categories), nil
}

// reportFor parses the period and fetches the report, writing the failure
// response itself when it returns false.
func (s *Server) reportFor(w http.ResponseWriter, r *http.Request, sess *session.Session) (viewmodel.Report, bool) {
	period, err := ParseReportPeriod(r.URL.Query(), s.now())
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, username(sess), "Please choose a valid year and month")
		return viewmodel.Report{}, false
	}
	report, err := s.fetchReport(r.Context(), s.newAPI(sess), period)
	if err != nil {
		s.handleError(w, r, sess, err)
		return viewmodel.Report{}, false
	}
	return report, true
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	report, ok := s.reportFor(w, r, sess)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "reports.html", page{
		Title:    "Reports",
		Nav:      "reports",
		Username: username(sess),
		Data: reportPage{
			Report: report,
			Years:  yearOptions(s.now(), report.Year),
			Months: monthOptions(report.Month),
		},
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	report, ok := s.reportFor(w, r, sess)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		s.exportFailed(w, r, sess, "xlsx", err)
		return
	}
	s.sendExport(w, r, export.ContentTypeXLSX, export.Filename(report, "xlsx"), &buf)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	report, ok := s.reportFor(w, r, sess)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, report, username(sess)); err != nil {
		s.exportFailed(w, r, sess, "pdf", err)
		return
	}
	s.sendExport(w, r, export.ContentTypePDF, export.Filename(report, "pdf"), &buf)
}

func (s *Server) sendExport(w http.ResponseWriter, r *http.Request, contentType, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WarnContext(r.Context(), "Export write interrupted", log.FieldError, err)
	}
}

func (s *Server) exportFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, format string, err error) {
	s.logger.ErrorContext(r.Context(), "Report export failed",
		log.FieldOperation, log.OpExport, log.FieldFormat, format, log.FieldError, err)
	s.renderError(w, r, http.StatusInternalServerError, username(sess), "The report could not be exported")
}
