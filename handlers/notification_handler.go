package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tradeCraftAPI/internal/notification"
	notiftypes "tradeCraftAPI/internal/types/notification"
	"tradeCraftAPI/middleware"
)

type NotificationHandler struct {
	fcmService *notification.FCMService
}

func NewNotificationHandler(fcmService *notification.FCMService) *NotificationHandler {
	return &NotificationHandler{
		fcmService: fcmService,
	}
}

func (h *NotificationHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if h.fcmService == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Push notifications are not configured")
		return
	}

	var req notiftypes.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Device token is required")
		return
	}

	if err := h.fcmService.RegisterDevice(ctx, userID, &req); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
