package http

import (
	"html/template"
	"net/http"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// handleIndex renders the filtered table, totals and chart data. A bad filter is
// reported on the page with 400 and the unfiltered view.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	query := r.URL.Query()

	view := dashboardView{
		Category:  sanitizeInput(query.Get("category")),
		StartDate: strings.TrimSpace(query.Get("startDate")),
		EndDate:   strings.TrimSpace(query.Get("endDate")),
	}
	for key, msg := range flashMessages {
		if query.Get(key) == "1" {
			view.Flash = msg
		}
	}

	status := http.StatusOK
	f, err := ParseFilter(query)
	if err != nil {
		status = http.StatusBadRequest
		view.Error = filterErrorMessage(err)
		f = core.Filter{}
		logger.WarnContext(ctx, "Rejected dashboard filter", applog.FieldError, err, applog.FieldQuery, r.URL.RawQuery)
	}

	report, err := s.reports.Report(ctx, f)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build report",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldError, err,
			applog.FieldFilter, f.Key())
		InternalServerError("Failed to load expenses. Please try again.").Write(w)
		return
	}

	view.Report = report
	view.Filter = f
	view.FilterQuery = template.URL(FilterQuery(f))
	s.render(w, r, status, "index.html", view)
}
