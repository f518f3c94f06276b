package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studystreak-backend/internal/handlers"
	"studystreak-backend/internal/middleware"
)

func newTestRouter() http.Handler {
	h := Handlers{
		Auth:         handlers.NewAuthHandler(nil, nil),
		Users:        handlers.NewUserHandler(nil, nil),
		Groups:       handlers.NewGroupHandler(nil),
		StudySession: handlers.NewStudySessionHandler(nil),
		Dashboard:    handlers.NewDashboardHandler(nil),
		Calendar:     handlers.NewCalendarHandler(nil, "http://localhost:5173"),
	}
	return New(middleware.NewJWTAuth("test-secret"), h, "http://localhost:5173")
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/users/6f1c1c52-6d43-4d6a-9d59-2f3f1f6c1a10"},
		{http.MethodPost, "/api/groups"},
		{http.MethodPut, "/api/study-sessions/6f1c1c52-6d43-4d6a-9d59-2f3f1f6c1a10/complete"},
		{http.MethodGet, "/api/dashboard/6f1c1c52-6d43-4d6a-9d59-2f3f1f6c1a10"},
		{http.MethodGet, "/api/users/6f1c1c52-6d43-4d6a-9d59-2f3f1f6c1a10/streaks"},
		{http.MethodGet, "/api/calendar/events"},
		{http.MethodPost, "/api/schedule/recommend"},
	}
	r := newTestRouter()

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", rr.Code)
			}
		})
	}
}

func TestSignupIsPublic(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{"))
	newTestRouter().ServeHTTP(rr, req)

	// A malformed body reaches the handler instead of the auth middleware.
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
