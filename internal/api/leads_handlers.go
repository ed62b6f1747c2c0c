package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/lead"
)

type createLeadRequest struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	JobTitle  string    `json:"job_title"`
	Source    string    `json:"source"`
	Metadata  lead.JSON `json:"metadata,omitempty"`
}

// CreateLead registers a new lead
func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	var req createLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	l := &lead.Lead{
		OrganizationID: h.orgID(r),
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Company:        req.Company,
		JobTitle:       req.JobTitle,
		Source:         req.Source,
		Metadata:       req.Metadata,
	}
	if err := h.leads.Create(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create lead")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// ListLeads returns leads for the caller's organization
func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	leads, err := h.leads.List(r.Context(), h.orgID(r), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leads": leads, "count": len(leads)})
}

// GetLead returns a single lead
func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	l, err := h.leads.Get(r.Context(), h.orgID(r), leadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lead")
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// UpdateLead updates contact profile fields
func (h *Handlers) UpdateLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req createLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := h.leads.Get(r.Context(), h.orgID(r), leadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lead")
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}

	l.FirstName = req.FirstName
	l.LastName = req.LastName
	l.Phone = req.Phone
	l.Company = req.Company
	l.JobTitle = req.JobTitle
	if err := h.leads.UpdateProfile(r.Context(), l); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update lead")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ArchiveLead soft-deletes a lead
func (h *Handlers) ArchiveLead(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	if err := h.leads.Archive(r.Context(), h.orgID(r), leadID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to archive lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

type recordActivityRequest struct {
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	Metadata    lead.JSON `json:"metadata,omitempty"`
}

// RecordLeadActivity records an engagement event and returns the rescored lead
func (h *Handlers) RecordLeadActivity(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req recordActivityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}

	l, err := h.leads.RecordActivity(r.Context(), h.orgID(r), leadID, req.Kind, req.Description, req.Metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record activity")
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lead":  l,
		"score": l.EngagementScore,
		"trend": lead.ClassifyTrend(l.ScoreHistory),
	})
}

// ListLeadActivities returns recent activities for a lead
func (h *Handlers) ListLeadActivities(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	activities, err := h.leads.Activities(r.Context(), leadID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"activities": activities})
}

type changeStageRequest struct {
	Stage string `json:"stage"`
}

// ChangeLeadStage moves a lead through the funnel
func (h *Handlers) ChangeLeadStage(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	leadID, err := uuid.Parse(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req changeStageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !lead.ValidStage(req.Stage) {
		writeError(w, http.StatusBadRequest, "invalid stage")
		return
	}

	l, err := h.leads.ChangeStage(r.Context(), h.orgID(r), leadID, req.Stage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to change stage")
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "lead not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// GetStageSummaries returns per-stage lead counts and average scores
func (h *Handlers) GetStageSummaries(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		writeError(w, http.StatusServiceUnavailable, "leads not configured")
		return
	}

	summaries, err := h.leads.StageSummaries(r.Context(), h.orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to summarize stages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": summaries})
}
