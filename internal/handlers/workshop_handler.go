package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

type WorkshopHandler struct {
	Service *services.WorkshopService
}

func (h *WorkshopHandler) CreateWorkshop(w http.ResponseWriter, r *http.Request) {
	var workshop models.Workshop
	if err := json.NewDecoder(r.Body).Decode(&workshop); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	created, err := h.Service.CreateWorkshop(r.Context(), workshop)
	if err != nil {
		http.Error(w, "Failed to create", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(created)
}

func (h *WorkshopHandler) GetWorkshopByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	workshop, err := h.Service.GetWorkshopByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Workshop not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(workshop)
}

func (h *WorkshopHandler) GetWorkshopsBySchool(w http.ResponseWriter, r *http.Request) {
	schoolID, _ := strconv.Atoi(getParam(r, "school_id"))
	workshops, err := h.Service.GetWorkshopsBySchool(r.Context(), schoolID)
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(workshops)
}

func (h *WorkshopHandler) GetUpcomingWorkshops(w http.ResponseWriter, r *http.Request) {
	workshops, err := h.Service.GetUpcomingWorkshops(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(workshops)
}

func (h *WorkshopHandler) UpdateWorkshop(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	var workshop models.Workshop
	if err := json.NewDecoder(r.Body).Decode(&workshop); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	workshop.ID = id
	updated, err := h.Service.UpdateWorkshop(r.Context(), workshop)
	if err != nil {
		http.Error(w, "Failed to update", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *WorkshopHandler) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	if err := h.Service.DeleteWorkshop(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /request — родитель записывает ребёнка на мастер-класс.
func (h *WorkshopHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req models.WorkshopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if uid, ok := r.Context().Value("user_id").(int); ok && req.UserID == 0 {
		req.UserID = uid
	}
	created, err := h.Service.CreateRequest(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrWorkshopNotFound) {
			http.Error(w, "Workshop not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to create", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// PUT /request/:id/status — админ подтверждает или отклоняет заявку.
func (h *WorkshopHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := h.Service.SetRequestStatus(r.Context(), id, body.Status); err != nil {
		if errors.Is(err, models.ErrNoRecord) {
			http.Error(w, "Request not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkshopHandler) GetRequestsByUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.Atoi(getParam(r, "user_id"))
	requests, err := h.Service.GetRequestsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(requests)
}
