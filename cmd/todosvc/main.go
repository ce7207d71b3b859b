package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-todo/internal/infra/config"
	"github.com/mkrupp/homecase-todo/internal/infra/database"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
	http_ "github.com/mkrupp/homecase-todo/internal/infra/transport/http"
	"github.com/mkrupp/homecase-todo/internal/infra/view"
	"github.com/mkrupp/homecase-todo/internal/repo/task"
	"github.com/mkrupp/homecase-todo/internal/repo/user"
	"github.com/mkrupp/homecase-todo/internal/svc/authsvc"
	"github.com/mkrupp/homecase-todo/internal/svc/tasksvc"
)

const (
	appName = "todo"
	svcName = "todosvc"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig      `envPrefix:"LOG_"`
	HTTP    http_.HTTPTransportConfig `envPrefix:"HTTP_"`
	DB      database.Config           `envPrefix:"DB_"`
	Session session.Config            `envPrefix:"SESSION_"`
	Auth    authsvc.AuthConfig        `envPrefix:"AUTH_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, "parse config:", err)
		os.Exit(2)
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		fmt.Fprintln(os.Stderr, "configure logging:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.todosvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	app, err := newApp(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := http_.ListenAndServe(ctx, app, cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// App is the assembled to-do web application.
type App struct {
	authSvc *authsvc.AuthService
	taskSvc *tasksvc.TaskService
	handler http.Handler
}

var _ http_.HTTPTransport = (*App)(nil)

func newApp(ctx context.Context, cfg Config, db *database.DB) (*App, error) {
	authSvc, err := authsvc.NewAuthService(user.SQLUserRepositoryFactory(db), cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("new auth service: %w", err)
	}

	taskSvc, err := tasksvc.NewTaskService(task.SQLTaskRepositoryFactory(db))
	if err != nil {
		return nil, fmt.Errorf("new task service: %w", err)
	}

	sessions, err := session.NewCookieStore(ctx, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("new session store: %w", err)
	}

	renderer, err := view.NewHTMLRenderer()
	if err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	mux := http.NewServeMux()
	authsvc.NewHTTPTransport(authSvc, sessions, renderer, cfg.HTTP).Routes(mux)
	tasksvc.NewHTTPTransport(taskSvc, sessions, renderer).Routes(mux)

	return &App{
		authSvc: authSvc,
		taskSvc: taskSvc,
		handler: http_.SessionMiddleware(mux, sessions, authSvc, logging.GetLogger("cmd.todosvc.http")),
	}, nil
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Close releases the services.
func (a *App) Close() error {
	if err := a.taskSvc.Close(); err != nil {
		return fmt.Errorf("close task service: %w", err)
	}

	if err := a.authSvc.Close(); err != nil {
		return fmt.Errorf("close auth service: %w", err)
	}

	return nil
}
