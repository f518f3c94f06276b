package handlers

import (
	"net/http"

	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/models"
	"studystreak-backend/internal/services"
)

type StudySessionHandler struct {
	sessionService *services.StudySessionService
}

func NewStudySessionHandler(sessionService *services.StudySessionService) *StudySessionHandler {
	return &StudySessionHandler{sessionService: sessionService}
}

func (h *StudySessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudySessionRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.sessionService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *StudySessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	session, err := h.sessionService.Get(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *StudySessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := h.sessionService.Complete(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StudySessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	session, err := h.sessionService.Cancel(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *StudySessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.sessionService.Delete(r.Context(), middleware.GetUserID(r.Context()), sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StudySessionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestSessionsRequest
	if !decode(w, r, &req) {
		return
	}
	suggestions, err := h.sessionService.Suggest(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}
