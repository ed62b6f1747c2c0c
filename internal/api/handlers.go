package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/analytics"
	"github.com/launchkit/launchkit/internal/auth"
	"github.com/launchkit/launchkit/internal/campaign"
	"github.com/launchkit/launchkit/internal/chatbot"
	"github.com/launchkit/launchkit/internal/imagegen"
	"github.com/launchkit/launchkit/internal/lead"
	"github.com/launchkit/launchkit/internal/website"
)

// defaultOrg is used when no session or header identifies the caller's
// organization, which only happens in dev mode.
var defaultOrg = auth.OrgIDForDomain("launchkit.local")

// Handlers carries the services the HTTP layer dispatches into. Any field
// may be nil when that subsystem is disabled; handlers answer 503 for it.
type Handlers struct {
	authManager *auth.Manager

	leads         *lead.Store
	siteGen       *website.Generator
	siteRenderer  *website.Renderer
	sites         *website.Store
	domains       *website.DomainService
	campaignGen   *campaign.Generator
	campaigns     *campaign.Store
	sender        *campaign.Sender
	rss           *campaign.RSSService
	chat          *chatbot.Service
	reports       *analytics.ReportService
	reportArchive *analytics.Archive
	images        *imagegen.Service

	startedAt time.Time
	providers []string
}

// NewHandlers creates the handler set
func NewHandlers(authManager *auth.Manager) *Handlers {
	return &Handlers{authManager: authManager, startedAt: time.Now()}
}

// Setters keep main's wiring readable; each subsystem is attached only when
// its config section is enabled.

func (h *Handlers) SetLeads(s *lead.Store) { h.leads = s }

func (h *Handlers) SetWebsites(gen *website.Generator, renderer *website.Renderer, store *website.Store, domains *website.DomainService) {
	h.siteGen = gen
	h.siteRenderer = renderer
	h.sites = store
	h.domains = domains
}

func (h *Handlers) SetCampaigns(gen *campaign.Generator, store *campaign.Store, sender *campaign.Sender, rss *campaign.RSSService) {
	h.campaignGen = gen
	h.campaigns = store
	h.sender = sender
	h.rss = rss
}

func (h *Handlers) SetChat(svc *chatbot.Service) { h.chat = svc }

func (h *Handlers) SetReports(svc *analytics.ReportService, archive *analytics.Archive) {
	h.reports = svc
	h.reportArchive = archive
}

func (h *Handlers) SetImages(svc *imagegen.Service) { h.images = svc }

func (h *Handlers) SetProviders(names ...string) {
	h.providers = append(h.providers, names...)
}

// HealthCheck reports process health and which subsystems are wired
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"providers": h.providers,
		"subsystems": map[string]bool{
			"leads":     h.leads != nil,
			"websites":  h.siteGen != nil,
			"campaigns": h.campaignGen != nil,
			"chat":      h.chat != nil,
			"reports":   h.reports != nil,
			"images":    h.images != nil,
			"domains":   h.domains != nil,
			"delivery":  h.sender != nil,
		},
	})
}

// orgID resolves the caller's organization: session first, then the
// X-Organization-ID header, then the dev default.
func (h *Handlers) orgID(r *http.Request) uuid.UUID {
	if h.authManager != nil {
		if session := h.authManager.GetSession(r); session != nil {
			return session.OrganizationID
		}
	}
	if header := r.Header.Get("X-Organization-ID"); header != "" {
		if id, err := uuid.Parse(header); err == nil {
			return id
		}
	}
	return defaultOrg
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
