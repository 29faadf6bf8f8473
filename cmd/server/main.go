package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codecollab/internal/api"
	"codecollab/internal/app/service"
	"codecollab/internal/common/security"
	"codecollab/internal/domain/repository"
	"codecollab/internal/platform/cache"
	"codecollab/internal/platform/config"
	"codecollab/internal/platform/database"
	"codecollab/internal/platform/judge"
	"codecollab/internal/platform/mail"
	"codecollab/internal/platform/metrics"
)

func main() {
	// 1. Load Configuration
	config.Load()
	log.Println("Configuration loaded.")

	// 2. Initialize JWT & metrics
	security.InitJWT()
	metrics.Init()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()

	// 4. Initialize Redis (execution result cache)
	cache.ConnectRedis()
	defer cache.CloseRedis()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	projectRepo := repository.NewPgProjectRepository(database.DB)
	inviteRepo := repository.NewPgInviteRepository(database.DB)

	// 6. External collaborators: judge client and mailer
	cfg := config.AppConfig
	judgeClient := judge.NewHTTPClient(cfg.JudgeBaseURL, cfg.JudgeAPIKey, cfg.JudgeAPIHost)
	mailer := mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo)
	projectService := service.NewProjectService(projectRepo, userRepo)
	inviteService := service.NewInviteService(inviteRepo, projectRepo, userRepo, mailer, cfg.InviteValidity, cfg.FrontendBaseURL)
	executionService := service.NewExecutionService(judgeClient, cache.RDB, cfg.JudgePollInterval, cfg.JudgeMaxAttempts, cfg.ExecCacheTTL)

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, projectService, inviteService, executionService)

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
		// Execution requests can legitimately block for the full polling
		// window (10 attempts at 1s), so the write timeout sits above it.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
