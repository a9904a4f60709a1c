package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"waxhands/internal/models"
	"waxhands/internal/services"
	"waxhands/utils"
)

type SchoolHandler struct {
	Service *services.SchoolService
	Storage *utils.Storage
}

func (h *SchoolHandler) CreateSchool(w http.ResponseWriter, r *http.Request) {
	var school models.School
	if err := json.NewDecoder(r.Body).Decode(&school); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	created, err := h.Service.CreateSchool(r.Context(), school)
	if err != nil {
		http.Error(w, "Failed to create", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(created)
}

func (h *SchoolHandler) GetSchools(w http.ResponseWriter, r *http.Request) {
	schools, err := h.Service.GetSchools(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(schools)
}

func (h *SchoolHandler) GetSchoolByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	school, err := h.Service.GetSchoolByID(r.Context(), id)
	if err != nil {
		http.Error(w, "School not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(school)
}

func (h *SchoolHandler) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	var school models.School
	if err := json.NewDecoder(r.Body).Decode(&school); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	school.ID = id
	updated, err := h.Service.UpdateSchool(r.Context(), school)
	if err != nil {
		http.Error(w, "Failed to update", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *SchoolHandler) DeleteSchool(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	if err := h.Service.DeleteSchool(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto принимает multipart-файл и кладёт его в объектное хранилище.
func (h *SchoolHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(getParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid school id", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	school, err := h.Service.GetSchoolByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrSchoolNotFound) {
			http.Error(w, "School not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(header.Filename))
	photoURL, err := h.Storage.UploadFile(data, fileName, "schools")
	if err != nil {
		http.Error(w, "Failed to upload photo", http.StatusInternalServerError)
		return
	}

	school.PhotoURL = photoURL
	updated, err := h.Service.UpdateSchool(r.Context(), school)
	if err != nil {
		http.Error(w, "Failed to update", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}
