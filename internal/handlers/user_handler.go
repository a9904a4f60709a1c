package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

type UserHandler struct {
	Service *services.UserService
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	resp, err := h.Service.SignUp(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail), errors.Is(err, models.ErrDuplicatePhone):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to sign up", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	tokens, err := h.Service.SignIn(r.Context(), req.Phone, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrInvalidCredentials):
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			http.Error(w, "Failed to sign in", http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(tokens)
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.GetUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(users)
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	user, err := h.Service.GetUserByID(r.Context(), id)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	user.ID = id
	updated, err := h.Service.UpdateUser(r.Context(), user)
	if err != nil {
		http.Error(w, "Failed to update", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(getParam(r, "id"))
	if err := h.Service.DeleteUser(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	// код уходит по SMS/почте; наружу его не отдаём
	if _, err := h.Service.RequestPasswordReset(r.Context(), req.UserID); err != nil {
		http.Error(w, "Failed to create reset code", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *UserHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int    `json:"user_id"`
		Code   string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	ok, err := h.Service.VerifyResetCode(r.Context(), req.UserID, req.Code)
	if err != nil {
		http.Error(w, "Failed to verify code", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"valid": ok})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      int    `json:"user_id"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := h.Service.ResetPassword(r.Context(), req.UserID, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			http.Error(w, "Invalid code", http.StatusForbidden)
			return
		}
		http.Error(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
