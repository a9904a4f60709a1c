package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

// Admin dashboard content tabs: about, contacts, privacy, bonuses, refunds.
type PageHandler struct {
	Service *services.PageService
}

func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug := getParam(r, "slug")
	page, err := h.Service.GetPage(r.Context(), slug)
	if err != nil {
		if errors.Is(err, models.ErrPageNotFound) {
			http.Error(w, "Page not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(page)
}

func (h *PageHandler) GetPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.Service.GetPages(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(pages)
}

func (h *PageHandler) UpsertPage(w http.ResponseWriter, r *http.Request) {
	slug := getParam(r, "slug")
	var page models.Page
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	page.Slug = slug
	saved, err := h.Service.UpsertPage(r.Context(), page)
	if err != nil {
		http.Error(w, "Failed to save", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(saved)
}
