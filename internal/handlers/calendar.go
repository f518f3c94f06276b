package handlers

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/models"
	"studystreak-backend/internal/services"
)

type CalendarHandler struct {
	calendarService *services.CalendarService
	frontendURL     string
}

func NewCalendarHandler(calendarService *services.CalendarService, frontendURL string) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (h *CalendarHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req models.CalendarAuthRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.calendarService.Authenticate(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Callback is the OAuth redirect target. It always lands the browser back on
// the frontend with the outcome in the query string.
func (h *CalendarHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := "connected"
	if errParam := q.Get("error"); errParam != "" {
		status = "denied"
	} else if err := h.calendarService.Callback(r.Context(), q.Get("state"), q.Get("code")); err != nil {
		log.Printf("handlers: [%s] calendar callback failed: %v", middleware.GetRequestID(r.Context()), err)
		status = "error"
	}
	http.Redirect(w, r, h.frontendURL+"/settings?calendar="+url.QueryEscape(status), http.StatusFound)
}

func (h *CalendarHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.calendarService.Disconnect(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseBound accepts RFC 3339 timestamps or plain dates. A plain end date
// includes the whole day.
func parseBound(raw string, end bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actorID := middleware.GetUserID(r.Context())

	userID := actorID
	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{"user_id": "Must be a valid ID"}, r))
			return
		}
		userID = id
	}

	fields := map[string]string{}
	start, ok := parseBound(q.Get("start_date"), false)
	if !ok {
		fields["start_date"] = "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	}
	end, ok := parseBound(q.Get("end_date"), true)
	if !ok {
		fields["end_date"] = "Must be a date (YYYY-MM-DD) or RFC 3339 timestamp"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	resp, err := h.calendarService.Events(r.Context(), actorID, userID, start, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CalendarHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.calendarService.Recommend(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
