package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

type ChildHandler struct {
	Service *services.ChildService
}

func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	var child models.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if uid, ok := r.Context().Value("user_id").(int); ok && child.ParentID == 0 {
		child.ParentID = uid
	}
	created, err := h.Service.CreateChild(r.Context(), child)
	if err != nil {
		http.Error(w, "Failed to create", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(created)
}

func (h *ChildHandler) GetChildByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	child, err := h.Service.GetChildByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Child not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(child)
}

func (h *ChildHandler) GetChildrenByParent(w http.ResponseWriter, r *http.Request) {
	parentID, _ := strconv.Atoi(getParam(r, "parent_id"))
	children, err := h.Service.GetChildrenByParent(r.Context(), parentID)
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(children)
}

func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	var child models.Child
	if err := json.NewDecoder(r.Body).Decode(&child); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	child.ID = id
	updated, err := h.Service.UpdateChild(r.Context(), child)
	if err != nil {
		http.Error(w, "Failed to update", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	parentID, _ := r.Context().Value("user_id").(int)
	if err := h.Service.DeleteChild(r.Context(), id, parentID); err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
