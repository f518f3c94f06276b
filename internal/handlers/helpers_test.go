package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
	"studystreak-backend/internal/services"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"name": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "no"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"calendar auth", &calendar.AuthError{Source: "google", Message: "reconnect"}, http.StatusUnauthorized, "CALENDAR_AUTH_REQUIRED"},
		{"calendar down", &calendar.ExternalServiceError{Source: "ical", Err: errors.New("timeout")}, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			apiErr := decodeError(t, rr)
			if apiErr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, apiErr.Code)
			}
			if strings.Contains(apiErr.Message, "pq:") || strings.Contains(apiErr.Message, "timeout") {
				t.Fatalf("internal detail leaked: %q", apiErr.Message)
			}
		})
	}
}

func TestDecode_ReportsJSONFieldNames(t *testing.T) {
	body := `{"username":"ab","email":"not-an-email","password":"short","preferences":{"timezone":"Mars/Olympus"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rr := httptest.NewRecorder()

	var dst models.CreateUserRequest
	if decode(rr, req, &dst) {
		t.Fatal("expected decode to reject the request")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	fields := decodeError(t, rr).Fields
	for _, name := range []string{"username", "email", "password", "preferences.timezone"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("expected a field error for %s, got %v", name, fields)
		}
	}
}

func TestDecode_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/groups", strings.NewReader("{"))
	rr := httptest.NewRecorder()

	var dst models.CreateGroupRequest
	if decode(rr, req, &dst) {
		t.Fatal("expected decode to reject the request")
	}
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestParseBound(t *testing.T) {
	start, ok := parseBound("2026-03-02", false)
	if !ok || start.Day() != 2 {
		t.Fatalf("unexpected start %v", start)
	}
	end, ok := parseBound("2026-03-02", true)
	if !ok || end.Day() != 3 {
		t.Fatalf("plain end date should include the whole day, got %v", end)
	}
	if _, ok := parseBound("2026-03-02T09:00:00Z", false); !ok {
		t.Fatal("expected RFC 3339 to parse")
	}
	if _, ok := parseBound("", false); ok {
		t.Fatal("expected empty bound to fail")
	}
}
