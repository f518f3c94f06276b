package handlers

import (
	"net/http"
	"strconv"

	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	dashboard, err := h.dashboardService.Build(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) HabitProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	report, err := h.dashboardService.HabitProgress(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) WeeklyProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	weeks := services.DefaultWeeks
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "weeks must be a positive number", r))
			return
		}
		weeks = n
	}

	progress, err := h.dashboardService.Weekly(r.Context(), middleware.GetUserID(r.Context()), userID, weeks)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"weeks":   progress,
		"user_id": userID,
	})
}

func (h *DashboardHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	streaks, err := h.dashboardService.Streaks(r.Context(), middleware.GetUserID(r.Context()), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streaks)
}
