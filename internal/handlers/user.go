package handlers

import (
	"net/http"

	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/models"
	"studystreak-backend/internal/services"
)

type UserHandler struct {
	userService    *services.UserService
	sessionService *services.StudySessionService
}

func NewUserHandler(userService *services.UserService, sessionService *services.StudySessionService) *UserHandler {
	return &UserHandler{userService: userService, sessionService: sessionService}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var prefs models.Preferences
	if !decode(w, r, &prefs) {
		return
	}
	user, err := h.userService.UpdatePreferences(r.Context(), middleware.GetUserID(r.Context()), userID, prefs)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ListStudySessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListForUser(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

