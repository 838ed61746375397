package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/HVQuoc/Tessenger/db"
	"github.com/HVQuoc/Tessenger/internal/chat"
	"github.com/HVQuoc/Tessenger/internal/config"
	"github.com/HVQuoc/Tessenger/internal/db"
	"github.com/HVQuoc/Tessenger/internal/handlers"
	"github.com/HVQuoc/Tessenger/internal/logger"
	"github.com/HVQuoc/Tessenger/internal/message"
	"github.com/HVQuoc/Tessenger/internal/server"
	"github.com/HVQuoc/Tessenger/internal/users"
	"github.com/HVQuoc/Tessenger/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideUserService(log *slog.Logger, pool *pgxpool.Pool) *users.Service {
	return users.NewService(log, pool)
}

func provideMessageService(log *slog.Logger, pool *pgxpool.Pool) *message.Service {
	return message.NewService(log, pool)
}

func provideChatService(log *slog.Logger, messageService *message.Service, cfg config.Config) *chat.Service {
	return chat.NewService(log, messageService, cfg.Chat)
}

func provideAuthHandler(log *slog.Logger, userService *users.Service, cfg config.Config) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, userService, cfg.Auth.JWTSecret, cfg.Auth.ExpiresIn())
}

func provideChatHandler(log *slog.Logger, chatService *chat.Service, cfg config.Config) *handlers.ChatHandler {
	return handlers.NewChatHandler(log, chatService, cfg.Auth.JWTSecret, cfg.Server.ClientOrigin)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(
		params.Logger,
		params.Config.Server.Addr,
		params.Config.Server.ClientOrigin,
		params.Config.Auth.JWTSecret,
		params.ServerHandlers...,
	)
}

func runMigrations(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sub, err := fs.Sub(migrations.MigrationsFS, "migrations")
			if err != nil {
				return err
			}
			return db.RunMigrate(logger, cfg.Postgres, sub, "up")
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	pool *pgxpool.Pool,
	userService *users.Service,
) {
	fmt.Printf("Starting Tessenger %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ensureAdminUser(ctx, logger, pool, userService, cfg); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

// ensureAdminUser seeds the configured account when the directory is empty.
func ensureAdminUser(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool, userService *users.Service, cfg config.Config) error {
	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		return nil
	}
	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	user, err := userService.Register(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		return err
	}
	log.Info("Admin user created", slog.String("username", user.Username))
	return nil
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,

			provideUserService,
			provideMessageService,
			provideChatService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewPeopleHandler),
			provideServerHandler(handlers.NewHistoryHandler),
			provideServerHandler(provideChatHandler),

			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}
