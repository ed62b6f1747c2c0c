package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/campaign"
)

type generateCampaignRequest struct {
	Name string `json:"name"`
	campaign.BriefRequest
}

// GenerateCampaign drafts a campaign from a brief and stores it
func (h *Handlers) GenerateCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaignGen == nil || h.campaigns == nil {
		writeError(w, http.StatusServiceUnavailable, "campaign generation not configured")
		return
	}

	var req generateCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, fromFallback, err := h.campaignGen.Generate(r.Context(), req.BriefRequest)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "missing") {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "campaign generation failed")
		return
	}

	name := req.Name
	if name == "" {
		name = doc.Subject
	}
	c := &campaign.Campaign{
		OrganizationID: h.orgID(r),
		Name:           name,
		Subject:        doc.Subject,
		PreviewText:    doc.PreviewText,
		HTML:           doc.HTML,
		Text:           doc.Text,
		CTAs:           doc.CTAs,
		FromFallback:   fromFallback,
	}
	if err := h.campaigns.Create(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store campaign")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListCampaigns returns campaigns, newest first
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		writeError(w, http.StatusServiceUnavailable, "campaigns not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	campaigns, err := h.campaigns.List(r.Context(), h.orgID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

// GetCampaign returns one campaign
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		writeError(w, http.StatusServiceUnavailable, "campaigns not configured")
		return
	}

	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	c, err := h.campaigns.Get(r.Context(), h.orgID(r), campaignID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// SendCampaign delivers a campaign to the organization's active leads
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil {
		writeError(w, http.StatusServiceUnavailable, "email delivery not configured")
		return
	}

	campaignID, err := uuid.Parse(chi.URLParam(r, "campaignID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	sent, err := h.sender.Send(r.Context(), h.orgID(r), campaignID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		if strings.Contains(err.Error(), "already sent") {
			writeError(w, http.StatusConflict, "campaign already sent")
			return
		}
		writeError(w, http.StatusBadGateway, "campaign delivery failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "sent", "recipients": sent})
}

type subjectsRequest struct {
	Product  string `json:"product"`
	Audience string `json:"audience"`
	Count    int    `json:"count"`
}

// GenerateSubjects returns subject-line variants for a campaign brief
func (h *Handlers) GenerateSubjects(w http.ResponseWriter, r *http.Request) {
	if h.campaignGen == nil {
		writeError(w, http.StatusServiceUnavailable, "campaign generation not configured")
		return
	}

	var req subjectsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Product == "" {
		writeError(w, http.StatusBadRequest, "product is required")
		return
	}

	suggestions, err := h.campaignGen.GenerateSubjects(r.Context(), req.Product, req.Audience, req.Count)
	if err != nil {
		writeError(w, http.StatusBadGateway, "subject generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

type ctasRequest struct {
	Product string `json:"product"`
	Count   int    `json:"count"`
}

// GenerateCTAs returns call-to-action phrases for a product
func (h *Handlers) GenerateCTAs(w http.ResponseWriter, r *http.Request) {
	if h.campaignGen == nil {
		writeError(w, http.StatusServiceUnavailable, "campaign generation not configured")
		return
	}

	var req ctasRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Product == "" {
		writeError(w, http.StatusBadRequest, "product is required")
		return
	}

	ctas, err := h.campaignGen.GenerateCTAs(r.Context(), req.Product, req.Count)
	if err != nil {
		writeError(w, http.StatusBadGateway, "cta generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ctas": ctas})
}

type createFeedRequest struct {
	Name    string `json:"name"`
	FeedURL string `json:"feed_url"`
}

// CreateFeed registers an RSS feed for automatic campaign drafting
func (h *Handlers) CreateFeed(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		writeError(w, http.StatusServiceUnavailable, "campaigns not configured")
		return
	}

	var req createFeedRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FeedURL == "" {
		writeError(w, http.StatusBadRequest, "feed_url is required")
		return
	}

	f := &campaign.Feed{
		OrganizationID: h.orgID(r),
		Name:           req.Name,
		FeedURL:        req.FeedURL,
	}
	if err := h.campaigns.CreateFeed(r.Context(), f); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register feed")
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// PollFeeds triggers an immediate poll of all active feeds
func (h *Handlers) PollFeeds(w http.ResponseWriter, r *http.Request) {
	if h.rss == nil {
		writeError(w, http.StatusServiceUnavailable, "rss polling not configured")
		return
	}

	if err := h.rss.PollAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "feed poll failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "polled"})
}
