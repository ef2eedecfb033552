package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/project-archive/internal/config"
	"github.com/iliyamo/project-archive/internal/database"
	"github.com/iliyamo/project-archive/internal/handler"
	"github.com/iliyamo/project-archive/internal/logger"
	"github.com/iliyamo/project-archive/internal/middleware"
	"github.com/iliyamo/project-archive/internal/queue"
	"github.com/iliyamo/project-archive/internal/repository"
	"github.com/iliyamo/project-archive/internal/router"
	"github.com/iliyamo/project-archive/internal/service"
	"github.com/iliyamo/project-archive/internal/storage"
)

type cfgKey struct{}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Project archive API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel)
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKey{}, cfg))
			return nil
		},
	}
	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd())
	// running the binary without a subcommand serves
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func getConfig(cmd *cobra.Command) config.Config {
	cfg, _ := cmd.Context().Value(cfgKey{}).(config.Config)
	return cfg
}

func newServeCmd() *cobra.Command {
	var (
		consume bool
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), getConfig(cmd), consume, migrate)
		},
	}
	cmd.Flags().BoolVar(&consume, "consume-events", false, "Also consume project events into logs/project_events.log")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, consume, migrate bool) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	e := newServer(cfg, db)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if consume {
		if cfg.AMQPURL == "" {
			logger.Warn().Msg("--consume-events ignored: AMQP_URL is not set")
		} else {
			g.Go(func() error {
				err := queue.Consume(gctx, cfg.AMQPURL, queue.DefaultLogPath)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}
	return g.Wait()
}

// newServer builds the Echo instance with every route and middleware.
func newServer(cfg config.Config, db *sql.DB) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Info().Msg("redis not configured or unreachable; rate limit and cache disabled")
	}
	cacheCfg := config.LoadCacheConfig()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())
	e.Use(logger.EchoLogger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, cfg.JWTSecret))

	users := repository.NewUserRepo(db)
	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users),
		Users:    handler.NewUserHandler(users),
		Roles:    handler.NewRoleHandler(repository.NewRoleRepo(db)),
		Types:    handler.NewProjectTypeHandler(repository.NewProjectTypeRepo(db)),
		Projects: handler.NewProjectHandler(
			repository.NewProjectRepo(db),
			storage.NewLocal(cfg.UploadDir, cfg.UploadURLPrefix),
			service.NewPublisher(cfg.AMQPURL),
		),
	}
	router.Register(e, db, h, router.Options{
		JWTSecret:  cfg.JWTSecret,
		UploadDir:  cfg.UploadDir,
		UploadURL:  cfg.UploadURLPrefix,
		Cache:      middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate: middleware.InvalidateCache(cacheCfg, rdb),
	})
	return e
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	run := func(fn func(db *sql.DB, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			db, err := database.Open(getConfig(cmd).DatabaseURL)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			return fn(db, cmd)
		}
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: run(func(db *sql.DB, _ *cobra.Command) error {
				return database.Migrate(db)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: run(func(db *sql.DB, _ *cobra.Command) error {
				return database.Rollback(db)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version",
			RunE: run(func(db *sql.DB, cmd *cobra.Command) error {
				v, err := database.Version(db)
				if err != nil {
					return err
				}
				cmd.Printf("schema version %d\n", v)
				return nil
			}),
		},
	)
	return cmd
}
