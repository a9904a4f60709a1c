package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"firebase.google.com/go/messaging"

	"waxhands/internal/repositories"
)

type PushHandler struct {
	Client *messaging.Client
	Tokens *repositories.PushTokenRepository
}

func NewPushHandler(client *messaging.Client, tokens *repositories.PushTokenRepository) *PushHandler {
	return &PushHandler{Client: client, Tokens: tokens}
}

type pushTokenRequest struct {
	UserID int    `json:"user_id"`
	Token  string `json:"token"`
}

// SendToUser delivers a push to every registered device of one user.
// Best-effort: failures are logged per token and never returned upward.
func (h *PushHandler) SendToUser(ctx context.Context, userID int, title, body string, data map[string]string) {
	if h.Client == nil {
		return
	}
	tokens, err := h.Tokens.GetTokensByUser(ctx, userID)
	if err != nil {
		log.Printf("push: fetch tokens for user=%d: %v", userID, err)
		return
	}
	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{"apns-priority": "10"},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{Title: title, Body: body},
						Sound: "default",
					},
				},
			},
		}
		if _, err := h.Client.Send(ctx, msg); err != nil {
			log.Printf("push: send to user=%d token=%s: %v", userID, token, err)
		}
	}
}

func (h *PushHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req pushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.InsertToken(r.Context(), req.UserID, req.Token); err != nil {
		http.Error(w, "Failed to insert token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *PushHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	token := getParam(r, "token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.DeleteToken(r.Context(), token); err != nil {
		http.Error(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// NotifyAll — админская рассылка на все устройства.
func (h *PushHandler) NotifyAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string            `json:"title"`
		Body  string            `json:"body"`
		Data  map[string]string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	tokens, err := h.Tokens.GetAllTokens(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch tokens", http.StatusInternalServerError)
		return
	}
	if len(tokens) == 0 {
		http.Error(w, "No tokens found", http.StatusNotFound)
		return
	}

	for _, token := range tokens {
		msg := &messaging.Message{
			Token:        token,
			Notification: &messaging.Notification{Title: req.Title, Body: req.Body},
			Data:         req.Data,
		}
		if _, err := h.Client.Send(r.Context(), msg); err != nil {
			log.Printf("push: broadcast token=%s: %v", token, err)
		}
	}
	w.WriteHeader(http.StatusOK)
}
