package handlers

import (
	"net/http"

	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/models"
	"studystreak-backend/internal/services"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if !decode(w, r, &req) {
		return
	}
	group, err := h.groupService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// List returns every group, or only the caller's with ?mine=true.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mine") == "true" {
		groups, err := h.groupService.ListForUser(r.Context(), middleware.GetUserID(r.Context()))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
		return
	}

	groups, err := h.groupService.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	group, err := h.groupService.Get(r.Context(), groupID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.groupService.Join(r.Context(), middleware.GetUserID(r.Context()), groupID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined group"})
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.groupService.Leave(r.Context(), middleware.GetUserID(r.Context()), groupID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Left group"})
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.groupService.Delete(r.Context(), middleware.GetUserID(r.Context()), groupID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.groupService.Leaderboard(r.Context(), groupID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"group_id":    groupID,
		"leaderboard": entries,
	})
}

func (h *GroupHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	streaks, err := h.groupService.Streaks(r.Context(), groupID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}

func (h *GroupHandler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req models.CreateChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	challenge, err := h.groupService.CreateChallenge(r.Context(), middleware.GetUserID(r.Context()), groupID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, challenge)
}

func (h *GroupHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	challenges, err := h.groupService.ListChallenges(r.Context(), groupID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": challenges})
}

func (h *GroupHandler) ChallengeLeaderboard(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	board, err := h.groupService.ChallengeLeaderboard(r.Context(), challengeID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *GroupHandler) CreateAccomplishment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccomplishmentRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.groupService.CreateAccomplishment(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *GroupHandler) ListAccomplishments(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.groupService.ListAccomplishments(r.Context(), middleware.GetUserID(r.Context()), groupID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accomplishments": items})
}
