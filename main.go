package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api "kaisey-backend/cmd/api"
	authdomain "kaisey-backend/internal/auth/domain"
	authRepo "kaisey-backend/internal/auth/repository"
	authUsecase "kaisey-backend/internal/auth/usecase"
	calendarRepo "kaisey-backend/internal/calendar/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/config"
	"kaisey-backend/pkg/database"
	"kaisey-backend/pkg/gcal"
	"kaisey-backend/pkg/setup"
	"kaisey-backend/pkg/sse"

	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 15 * time.Second

func main() {
	app := &cli.App{
		Name:   "kaisey",
		Usage:  "Scheduling assistant backend: calendar sync, conflict detection and brain-dump planning.",
		Action: serve,
		Commands: []*cli.Command{
			serveCommand(),
			setupCheckCommand(),
			hashPasswordCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP API (default).",
		Flags:  []cli.Flag{&cli.StringFlag{Name: "port", Usage: "Override the PORT environment variable."}},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	// Load configuration
	cfg := config.Load()
	if port := c.String("port"); port != "" {
		cfg.Port = port
	}

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.StoredToken{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	tokenRepo := authRepo.NewTokenRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize Google Calendar service (OAuth and calendar adapter)
	calendarService := gcal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, cfg.GoogleCalendarID)
	if !calendarService.Configured() {
		log.Printf("[WARN] GOOGLE_CLIENT_ID not configured, only demo and token logins are available")
	}

	store := session.NewStore()
	remotes := calendarRepo.NewGoogleCalendarFactory(calendarService, tokenRepo)
	seeds := calendarRepo.NewSeedRepository(cfg.DemoEventsFile)

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, tokenRepo, calendarService, store, cfg)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, store, remotes, seeds, sseManager, cfg)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- handler.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return handler.Shutdown(shutdownCtx)
}

func setupCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup-check",
		Usage: "Validate the credentials in a .env file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Path of the .env file to check."},
			&cli.BoolFlag{Name: "strict", Usage: "Treat unset values as failures."},
		},
		Action: func(c *cli.Context) error {
			report, err := setup.Check(c.String("env-file"), c.Bool("strict"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			report.Write(c.App.Writer)
			if code := report.ExitCode(); code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}

func hashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print a bcrypt hash for ADMIN_PASSWORD_HASH.",
		ArgsUsage: "[password]",
		Action: func(c *cli.Context) error {
			password := c.Args().First()
			if password == "" {
				fmt.Fprint(c.App.ErrWriter, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			if password == "" {
				return cli.Exit("password must not be empty", 1)
			}

			hash, err := authRepo.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, hash)
			return nil
		},
	}
}
