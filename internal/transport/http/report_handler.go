package http

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"

	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reports *app.ReportService
}

func NewReportHandler(reports *app.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Reports serves ?format=json|csv|xlsx, optionally narrowed by ?testId=.
func (h *ReportHandler) Reports(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		writeFail(w, r, http.StatusBadRequest, domain.KindInvalidArgument.String(), "format must be json, csv or xlsx", nil)
		return
	}

	var reports []app.TestReport
	if testID := r.URL.Query().Get("testId"); testID != "" {
		report, err := h.reports.Report(r.Context(), testID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		reports = []app.TestReport{report}
	} else {
		all, err := h.reports.Reports(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		reports = all
	}

	switch format {
	case "csv":
		h.download(w, r, "text/csv; charset=utf-8", "test-report.csv", reports, app.WriteCSV)
	case "xlsx":
		h.download(w, r, xlsxContentType, "test-report.xlsx", reports, app.WriteXLSX)
	default:
		writeOK(w, r, http.StatusOK, reports)
	}
}

func (h *ReportHandler) download(w http.ResponseWriter, r *http.Request, contentType, filename string, reports []app.TestReport, write func(w io.Writer, reports []app.TestReport) error) {
	// render fully first so a failure can still produce an error envelope
	var buf bytes.Buffer
	if err := write(&buf, reports); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Str("file", filename).Msg("report download interrupted")
	}
}
