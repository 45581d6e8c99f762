package handler

import (
	"net/http"

	"github.com/bengaltrails/bengaltrails-go/internal/catalogue"
	"github.com/go-chi/chi/v5"
)

// CatalogueHandler exposes the travel catalogue. No session is needed.
type CatalogueHandler struct {
	catalogue *catalogue.Catalogue
}

func NewCatalogueHandler(c *catalogue.Catalogue) *CatalogueHandler {
	return &CatalogueHandler{catalogue: c}
}

// HandleLocations handles GET /catalogue/locations[?category=].
func (h *CatalogueHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"locations": h.catalogue.Locations(r.URL.Query().Get("category")),
	})
}

// HandleLocation handles GET /catalogue/locations/{id}.
func (h *CatalogueHandler) HandleLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.catalogue.Location(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"location": loc})
}

func (h *CatalogueHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": h.catalogue.Categories()})
}

func (h *CatalogueHandler) HandleFestivals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"festivals": h.catalogue.Festivals()})
}

// HandleFestival handles GET /catalogue/festivals/{id}.
func (h *CatalogueHandler) HandleFestival(w http.ResponseWriter, r *http.Request) {
	f, err := h.catalogue.Festival(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"festival": f})
}

// HandleSearch handles GET /catalogue/search?q=.
func (h *CatalogueHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogue.Search(r.URL.Query().Get("q")))
}
