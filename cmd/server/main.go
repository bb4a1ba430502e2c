package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	userservice "github.com/jagajithmk/CodeCraftHub"
)

type App struct {
	config *userservice.AppConfig
	bunDB  *bun.DB
	sqlDB  *sql.DB
	auther *userservice.Auther
	repo   userservice.RepositoryManager
	srv    *fiber.App
	logger userservice.Logger
}

// slogAdapter bridges the service Logger onto log/slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(format string, args ...any) { a.l.Debug(fmt.Sprintf(format, args...)) }
func (a slogAdapter) Info(format string, args ...any)  { a.l.Info(fmt.Sprintf(format, args...)) }
func (a slogAdapter) Warn(format string, args ...any)  { a.l.Warn(fmt.Sprintf(format, args...)) }
func (a slogAdapter) Error(format string, args ...any) { a.l.Error(fmt.Sprintf(format, args...)) }

func main() {
	cfg, err := userservice.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	lgr := slogAdapter{l: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))}

	if cfg.SigningKey == userservice.DevSigningKey {
		lgr.Warn("JWT_SECRET not set, using the development signing key")
	}

	if cfg.Debug {
		fmt.Println(print.MaybePrettyJSON(cfg))
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup: %v", err)
		os.Exit(1)
	}

	WithAuth(app)
	WithHTTPServer(app)

	go func() {
		if err := app.srv.Listen(cfg.ServerAddr); err != nil {
			lgr.Error("server: %v", err)
			os.Exit(1)
		}
	}()

	WaitExitSignal()

	lgr.Info("shutting down...")
	if err := app.srv.ShutdownWithTimeout(10 * time.Second); err != nil {
		lgr.Error("shutdown: %v", err)
	}
	if err := app.bunDB.Close(); err != nil {
		lgr.Error("close db: %v", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	if err := userservice.RunMigrations(ctx, sqldb); err != nil {
		return err
	}

	app.sqlDB = sqldb
	app.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	app.repo = userservice.NewRepositoryManager(app.bunDB)

	return app.repo.Validate()
}

type userTrackerAdapter struct {
	users userservice.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*userservice.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *userservice.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *userservice.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WithAuth(app *App) {
	provider := userservice.NewUserProvider(userTrackerAdapter{users: app.repo.Users()}).
		WithLogger(app.logger)

	app.auther = userservice.NewAuthenticator(provider, app.config).
		WithLogger(app.logger)
}

func WithHTTPServer(app *App) {
	controller := userservice.NewUserController(
		userservice.WithControllerRepo(app.repo),
		userservice.WithControllerAuther(app.auther),
		userservice.WithControllerLogger(app.logger),
		userservice.WithControllerDebug(app.config.Debug),
	)

	srv := fiber.New(fiber.Config{
		AppName:      "codecrafthub-user-service",
		ErrorHandler: controller.ErrorHandler,
	})

	srv.Use(recover.New())
	srv.Use(fiberlogger.New())

	srv.Get("/health", func(c *fiber.Ctx) error {
		if err := app.sqlDB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "error",
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := srv.Group("/api/users")
	userservice.RegisterUserRoutes(api, controller, app.config)

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
