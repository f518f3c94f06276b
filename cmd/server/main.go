package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/config"
	"studystreak-backend/internal/database"
	"studystreak-backend/internal/handlers"
	"studystreak-backend/internal/middleware"
	"studystreak-backend/internal/repository"
	"studystreak-backend/internal/router"
	"studystreak-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting StudyStreak Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	defaultLoc := cfg.Location()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	store := database.NewRedisStore(redisClient)
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsPath); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	groupRepo := repository.NewGroupRepo(pool)
	studySessionRepo := repository.NewStudySessionRepo(pool)
	challengeRepo := repository.NewChallengeRepo(pool)
	accomplishmentRepo := repository.NewAccomplishmentRepo(pool)
	credentialRepo := repository.NewCalendarCredentialRepo(pool)

	// ──── Step 5: Initialize Calendar Adapter ────
	var googleOAuth *calendar.GoogleOAuth
	var oauthFlow services.OAuthFlow
	if cfg.GoogleCalendarEnabled() {
		googleOAuth = calendar.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		oauthFlow = googleOAuth
		log.Println("✓ Google Calendar enabled")
	} else {
		log.Println("⚠ Google Calendar disabled (GOOGLE_CLIENT_ID not set), iCal feeds only")
	}
	calendarAdapter := calendar.NewAdapter(googleOAuth, credentialRepo, store, calendar.AdapterConfig{
		Timeout:           cfg.CalendarTimeout,
		CacheTTL:          cfg.CalendarCacheTTL,
		AllowPrivateFeeds: cfg.AllowPrivateFeeds,
	})

	// ──── Step 6: Initialize Gemini Classifier (optional) ────
	var classifier services.WorkClassifier
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiClassifier(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("⚠ Gemini client initialization failed, using keyword rules: %v", err)
		} else {
			defer gemini.Close()
			classifier = gemini
			log.Println("✓ Gemini Flash classifier initialized")
		}
	}

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	if cfg.UseSES() {
		sesService, err := services.NewSESEmailService(context.Background(), cfg.AWSRegion, cfg.SMTPFrom, cfg.FrontendURL)
		if err != nil {
			log.Printf("⚠ SES initialization failed, falling back to SMTP: %v", err)
		} else {
			emailService = sesService
			log.Printf("✓ Email via Amazon SES (%s)", cfg.AWSRegion)
		}
	}
	schedule := services.ScheduleConfig{HorizonDays: cfg.ScheduleHorizonDays, MaxSlots: cfg.ScheduleMaxSlots}

	authService := services.NewAuthService(userRepo, store, jwtAuth)
	userService := services.NewUserService(userRepo)
	sessionService := services.NewStudySessionService(studySessionRepo, userRepo, groupRepo, calendarAdapter, emailService,
		services.NewPlanner(classifier), cfg.HabitTargetDays, defaultLoc)
	groupService := services.NewGroupService(groupRepo, studySessionRepo, challengeRepo, accomplishmentRepo,
		cfg.HabitTargetDays, defaultLoc)
	dashboardService := services.NewDashboardService(userRepo, studySessionRepo, groupRepo, calendarAdapter, schedule,
		cfg.HabitTargetDays, defaultLoc)
	calendarService := services.NewCalendarService(userRepo, store, calendarAdapter, oauthFlow, credentialRepo, schedule, defaultLoc)

	// ──── Initialize Handlers ────
	h := router.Handlers{
		Auth:         handlers.NewAuthHandler(authService, userService),
		Users:        handlers.NewUserHandler(userService, sessionService),
		Groups:       handlers.NewGroupHandler(groupService),
		StudySession: handlers.NewStudySessionHandler(sessionService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService),
		Calendar:     handlers.NewCalendarHandler(calendarService, cfg.FrontendURL),
	}

	// ──── Step 7: Start HTTP Server ────
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(jwtAuth, h, cfg.FrontendURL),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyStreak Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api", cfg.Port)
	log.Printf("  Habit target: %d days, default timezone %s", cfg.HabitTargetDays, cfg.DefaultTimezone)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
