package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/website"
)

// GenerateWebsite drafts a site document from a business brief and stores it
// as a new version
func (h *Handlers) GenerateWebsite(w http.ResponseWriter, r *http.Request) {
	if h.siteGen == nil || h.sites == nil {
		writeError(w, http.StatusServiceUnavailable, "website generation not configured")
		return
	}

	var req website.BriefRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, fromFallback, err := h.siteGen.Generate(r.Context(), req)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "missing") {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "site generation failed")
		return
	}

	site := &website.Site{
		OrganizationID: h.orgID(r),
		Slug:           req.BusinessName,
		Document:       *doc,
		FromFallback:   fromFallback,
	}
	if err := h.sites.CreateSite(r.Context(), site); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store site")
		return
	}
	writeJSON(w, http.StatusCreated, site)
}

// ListWebsites returns the latest version of each site
func (h *Handlers) ListWebsites(w http.ResponseWriter, r *http.Request) {
	if h.sites == nil {
		writeError(w, http.StatusServiceUnavailable, "websites not configured")
		return
	}

	sites, err := h.sites.ListSites(r.Context(), h.orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sites": sites})
}

// GetWebsite returns one site version
func (h *Handlers) GetWebsite(w http.ResponseWriter, r *http.Request) {
	site := h.loadSite(w, r)
	if site == nil {
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// PreviewWebsite renders the stored document to HTML
func (h *Handlers) PreviewWebsite(w http.ResponseWriter, r *http.Request) {
	if h.siteRenderer == nil {
		writeError(w, http.StatusServiceUnavailable, "rendering not configured")
		return
	}

	site := h.loadSite(w, r)
	if site == nil {
		return
	}

	html, err := h.siteRenderer.Render(&site.Document)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render site")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// PublishWebsite marks a site version as the live one
func (h *Handlers) PublishWebsite(w http.ResponseWriter, r *http.Request) {
	site := h.loadSite(w, r)
	if site == nil {
		return
	}

	if err := h.sites.PublishSite(r.Context(), site.OrganizationID, site.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to publish site")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

type provisionDomainRequest struct {
	Domain string `json:"domain"`
}

// ProvisionDomain starts certificate and CDN provisioning for a custom domain
func (h *Handlers) ProvisionDomain(w http.ResponseWriter, r *http.Request) {
	if h.domains == nil {
		writeError(w, http.StatusServiceUnavailable, "custom domains not configured")
		return
	}

	site := h.loadSite(w, r)
	if site == nil {
		return
	}

	var req provisionDomainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	d, err := h.domains.Provision(r.Context(), site.OrganizationID, site.ID, req.Domain)
	if err != nil {
		writeError(w, http.StatusBadGateway, "domain provisioning failed")
		return
	}
	writeJSON(w, http.StatusAccepted, d)
}

// GetDomainStatus polls provisioning progress for a site's domain
func (h *Handlers) GetDomainStatus(w http.ResponseWriter, r *http.Request) {
	if h.domains == nil {
		writeError(w, http.StatusServiceUnavailable, "custom domains not configured")
		return
	}

	domainID, err := uuid.Parse(r.URL.Query().Get("domain_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "domain_id is required")
		return
	}

	d, err := h.domains.Status(r.Context(), h.orgID(r), domainID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check domain status")
		return
	}
	if d == nil {
		writeError(w, http.StatusNotFound, "domain not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) loadSite(w http.ResponseWriter, r *http.Request) *website.Site {
	if h.sites == nil {
		writeError(w, http.StatusServiceUnavailable, "websites not configured")
		return nil
	}

	siteID, err := uuid.Parse(chi.URLParam(r, "siteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid site id")
		return nil
	}

	site, err := h.sites.GetSite(r.Context(), h.orgID(r), siteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load site")
		return nil
	}
	if site == nil {
		writeError(w, http.StatusNotFound, "site not found")
		return nil
	}
	return site
}
