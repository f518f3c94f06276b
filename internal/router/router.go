package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studystreak-backend/internal/handlers"
	"studystreak-backend/internal/middleware"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Groups       *handlers.GroupHandler
	StudySession *handlers.StudySessionHandler
	Dashboard    *handlers.DashboardHandler
	Calendar     *handlers.CalendarHandler
}

func New(jwtAuth *middleware.JWTAuth, h Handlers, frontendURL string) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Public Routes ────
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/users", h.Auth.Signup)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/refresh", h.Auth.Refresh)
		})

		// OAuth redirect target; the user is identified by the stored state.
		r.Get("/calendar/callback", h.Calendar.Callback)

		// ──── Authenticated Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Post("/auth/logout", h.Auth.Logout)
			r.Get("/auth/me", h.Auth.Me)

			r.Route("/users/{id}", func(r chi.Router) {
				r.Get("/", h.Users.Get)
				r.Put("/preferences", h.Users.UpdatePreferences)
				r.Delete("/", h.Users.Delete)
				r.Get("/study-sessions", h.Users.ListStudySessions)
				r.Get("/streaks", h.Dashboard.Streaks)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", h.Groups.Create)
				r.Get("/", h.Groups.List)
				r.Get("/{id}", h.Groups.Get)
				r.Delete("/{id}", h.Groups.Delete)
				r.Post("/{id}/join", h.Groups.Join)
				r.Post("/{id}/leave", h.Groups.Leave)
				r.Get("/{id}/leaderboard", h.Groups.Leaderboard)
				r.Get("/{id}/streaks", h.Groups.Streaks)
				r.Post("/{id}/challenges", h.Groups.CreateChallenge)
				r.Get("/{id}/challenges", h.Groups.ListChallenges)
				r.Get("/{id}/accomplishments", h.Groups.ListAccomplishments)
			})

			r.Get("/challenges/{id}/leaderboard", h.Groups.ChallengeLeaderboard)
			r.Post("/accomplishments", h.Groups.CreateAccomplishment)

			r.Route("/study-sessions", func(r chi.Router) {
				r.Post("/", h.StudySession.Create)
				r.Post("/suggest", h.StudySession.Suggest)
				r.Get("/{id}", h.StudySession.Get)
				r.Put("/{id}/complete", h.StudySession.Complete)
				r.Put("/{id}/cancel", h.StudySession.Cancel)
				r.Delete("/{id}", h.StudySession.Delete)
			})

			r.Route("/dashboard/{id}", func(r chi.Router) {
				r.Get("/", h.Dashboard.Get)
				r.Get("/habit-progress", h.Dashboard.HabitProgress)
				r.Get("/weekly-progress", h.Dashboard.WeeklyProgress)
			})

			r.Route("/calendar", func(r chi.Router) {
				r.Post("/authenticate", h.Calendar.Authenticate)
				r.Get("/events", h.Calendar.Events)
				r.Delete("/credentials", h.Calendar.Disconnect)
			})

			r.Post("/schedule/recommend", h.Calendar.Recommend)
		})
	})

	return r
}
