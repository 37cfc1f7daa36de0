package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/config"
	httptransport "github.com/example/company-calendar/internal/http"
	"github.com/example/company-calendar/internal/logging"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "scheduler",
		Usage:     "Multi-tenant company calendar API.",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before configuration"},
		},
		Before: func(c *cli.Context) error {
			if err := godotenv.Load(c.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", c.String("env-file"), err)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			createUserCommand(),
		},
	}
}

// appEnv bundles what every command needs: configuration, a logger and an
// open, migrated database.
type appEnv struct {
	cfg    config.Config
	logger *slog.Logger
	pool   *sqlite.ConnectionPool
}

func openEnv(c *cli.Context, migrate bool) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}

	pool, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLitePath))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if migrate {
		applied, err := sqlite.Migrate(c.Context, pool, logger)
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("database schema ready", "applied", applied, "path", cfg.SQLitePath)
	}

	return &appEnv{cfg: cfg, logger: logger, pool: pool}, nil
}

func (env *appEnv) close() {
	if err := env.pool.Close(); err != nil {
		env.logger.Error("failed to close storage", "error", err)
	}
}

type services struct {
	events *application.EventService
	rooms  *application.RoomService
	users  *application.UserService
	auth   *application.AuthService
}

func (env *appEnv) services() services {
	users := sqlite.NewUserRepository(env.pool)
	now := time.Now
	return services{
		events: application.NewEventServiceWithLogger(sqlite.NewEventRepository(env.pool), uuid.NewString, now, env.logger),
		rooms:  application.NewRoomServiceWithLogger(sqlite.NewRoomRepository(env.pool), users, uuid.NewString, now, env.logger),
		users:  application.NewUserServiceWithLogger(users, application.HashPassword, uuid.NewString, now, env.cfg.DefaultTimezone, env.logger),
		auth:   application.NewAuthServiceWithLogger(users, application.VerifyPassword, env.logger),
	}
}

func (env *appEnv) handler() http.Handler {
	svc := env.services()
	return httptransport.NewRouter(httptransport.RouterConfig{
		Events:       httptransport.NewEventHandler(svc.events, env.logger),
		Rooms:        httptransport.NewRoomHandler(svc.rooms, env.logger),
		Users:        httptransport.NewUserHandler(svc.users, env.logger),
		Authenticate: httptransport.RequireBasicAuth(svc.auth, env.logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(env.logger)},
	})
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Apply pending migrations and run the HTTP API.",
		Action: func(c *cli.Context) error {
			env, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer env.close()

			server := &http.Server{
				Addr:              env.cfg.Addr(),
				Handler:           env.handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				env.logger.Info("calendar API listening", "addr", server.Addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-c.Context.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.ShutdownTimeout)
			defer cancel()
			env.logger.Info("shutting down", "timeout", env.cfg.ShutdownTimeout)
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "status", Usage: "print the schema version and pending migrations without applying them"},
		},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c, false)
			if err != nil {
				return err
			}
			defer env.close()

			manager := sqlite.NewMigrationManager(env.pool, env.logger)
			if c.Bool("status") {
				status, err := manager.Status(c.Context)
				if err != nil {
					return err
				}
				current := status.CurrentVersion
				if current == "" {
					current = "none"
				}
				fmt.Fprintf(c.App.Writer, "current version: %s\n", current)
				for _, m := range status.Pending {
					fmt.Fprintf(c.App.Writer, "pending: %s %s\n", m.Version, m.Description)
				}
				return nil
			}

			applied, err := manager.Run(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", applied)
			return nil
		},
	}
}

func createUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create an account from the command line.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Usage: "defaults to $SCHEDULER_USER_PASSWORD", EnvVars: []string{"SCHEDULER_USER_PASSWORD"}},
			&cli.StringFlag{Name: "company", Usage: "company UUID; a new company is created when empty"},
			&cli.StringFlag{Name: "timezone", Usage: "IANA timezone; defaults to the configured default"},
		},
		Action: func(c *cli.Context) error {
			env, err := openEnv(c, true)
			if err != nil {
				return err
			}
			defer env.close()

			user, err := env.services().users.Register(c.Context, application.RegisterUserParams{
				Email:     c.String("email"),
				Password:  c.String("password"),
				CompanyID: c.String("company"),
				Timezone:  c.String("timezone"),
			})
			if err != nil {
				var vErr *application.ValidationError
				if errors.As(err, &vErr) {
					for field, msg := range vErr.FieldErrors {
						fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", field, msg)
					}
				}
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(c.App.Writer, "created user %s (%s) in company %s\n", user.ID, user.Email, user.CompanyID)
			return nil
		},
	}
}
