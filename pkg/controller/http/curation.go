package http

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/oamfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/oamfetch/pkg/domain/model"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>oamfetch curation</title>
<style>
body { font-family: sans-serif; margin: 1em; }
.grid { display: flex; flex-wrap: wrap; gap: 8px; }
figure { margin: 0; width: 260px; }
img { width: 256px; height: 256px; object-fit: contain; background: #eee; }
figcaption { font-size: 12px; word-break: break-all; }
</style>
</head>
<body>
<h1>{{len .}} thumbnails</h1>
<div class="grid">
{{range .}}<figure id="{{.Name}}">
<img loading="lazy" src="/thumbnails/{{.Name}}" alt="{{.RecordID}}">
<figcaption>{{.RecordID}} <button onclick="reject('{{.Name}}')">reject</button></figcaption>
</figure>
{{end}}</div>
<script>
async function reject(name) {
  const resp = await fetch('/api/thumbnails/' + encodeURIComponent(name), {method: 'DELETE'});
  if (resp.ok) { document.getElementById(name).remove(); }
}
</script>
</body>
</html>
`))

// CurationHandler serves thumbnail review
type CurationHandler struct {
	uc interfaces.CurationUseCase
}

// NewCurationHandler creates a CurationHandler
func NewCurationHandler(uc interfaces.CurationUseCase) *CurationHandler {
	return &CurationHandler{uc: uc}
}

// Index renders the review page
func (h *CurationHandler) Index(w http.ResponseWriter, r *http.Request) {
	thumbnails, err := h.uc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, thumbnails); err != nil {
		writeError(w, r, err)
	}
}

// List returns the thumbnails awaiting review
func (h *CurationHandler) List(w http.ResponseWriter, r *http.Request) {
	thumbnails, err := h.uc.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if thumbnails == nil {
		thumbnails = []model.ThumbnailInfo{}
	}
	writeJSON(w, r, thumbnails)
}

// Thumbnail serves one image file
func (h *CurationHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.uc.Path(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

// Reject deletes a thumbnail so its record leaves the curated subset
func (h *CurationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Reject(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type duplicateResponse struct {
	Scanned   int                    `json:"scanned"`
	Redundant int                    `json:"redundant"`
	Groups    []duplicateGroupResult `json:"groups"`
}

type duplicateGroupResult struct {
	Hash       string   `json:"hash"`
	Canonical  string   `json:"canonical"`
	Duplicates []string `json:"duplicates"`
}

// Duplicates lists groups of identical thumbnails
func (h *CurationHandler) Duplicates(w http.ResponseWriter, r *http.Request) {
	report, err := h.uc.Duplicates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := duplicateResponse{
		Scanned:   report.Scanned,
		Redundant: report.RedundantCount(),
		Groups:    make([]duplicateGroupResult, 0, len(report.Groups)),
	}
	for _, g := range report.Groups {
		resp.Groups = append(resp.Groups, duplicateGroupResult{
			Hash:       g.Hash,
			Canonical:  g.Canonical,
			Duplicates: g.Duplicates,
		})
	}
	writeJSON(w, r, resp)
}
