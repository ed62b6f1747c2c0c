package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// BuildReport assembles an engagement report for a window. Defaults to the
// trailing 30 days.
func (h *Handlers) BuildReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports not configured")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}

	report, err := h.reports.BuildReport(r.Context(), h.orgID(r), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ListArchivedReports returns the archive index for the organization
func (h *Handlers) ListArchivedReports(w http.ResponseWriter, r *http.Request) {
	if h.reportArchive == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	refs, err := h.reportArchive.ListReports(r.Context(), h.orgID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list archived reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": refs})
}

// GetArchivedReport loads a single archived report by its storage key.
// Keys are namespaced per organization, so a caller can only fetch keys
// under their own prefix.
func (h *Handlers) GetArchivedReport(w http.ResponseWriter, r *http.Request) {
	if h.reportArchive == nil {
		writeError(w, http.StatusServiceUnavailable, "report archive not configured")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	if !strings.HasPrefix(key, "reports/"+h.orgID(r).String()+"/") {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}

	report, err := h.reportArchive.GetReport(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
