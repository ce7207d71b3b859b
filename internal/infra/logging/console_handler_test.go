package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mkrupp/homecase-todo/internal/domain"
	context_ "github.com/mkrupp/homecase-todo/internal/infra/context"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
)

func newConsoleLogger(buf *bytes.Buffer, level slog.Level, pkgLevels map[string]slog.Level) logging.Logger {
	//nolint:exhaustruct
	handler := &logging.ConsoleHandler{
		Output:    buf,
		Level:     level,
		PkgLevels: pkgLevels,
	}

	return slog.New(logging.NewTracingHandler(handler))
}

func TestConsoleHandler_PkgLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		logger    string
		level     slog.Level
		pkgLevels map[string]slog.Level
		wantLine  bool
	}{
		{
			name:     "below global level is dropped",
			logger:   "svc.tasksvc",
			level:    slog.LevelInfo,
			wantLine: false,
		},
		{
			name:      "package override lowers threshold",
			logger:    "repo.task.sql_task_repository",
			level:     slog.LevelInfo,
			pkgLevels: map[string]slog.Level{"repo": slog.LevelDebug},
			wantLine:  true,
		},
		{
			name:      "package override raises threshold",
			logger:    "repo.task.sql_task_repository",
			level:     slog.LevelDebug,
			pkgLevels: map[string]slog.Level{"repo.task": slog.LevelError},
			wantLine:  false,
		},
		{
			name:      "other packages keep global level",
			logger:    "svc.authsvc",
			level:     slog.LevelInfo,
			pkgLevels: map[string]slog.Level{"repo": slog.LevelDebug},
			wantLine:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			log := newConsoleLogger(&buf, tt.level, tt.pkgLevels).With("logger", tt.logger)
			log.Debug("hello")

			if got := buf.Len() > 0; got != tt.wantLine {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.wantLine, buf.String())
			}
		})
	}
}

func TestConsoleHandler_RendersContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log := newConsoleLogger(&buf, slog.LevelDebug, nil).With("logger", "svc.tasksvc")

	ctx := context_.WithTraceID(context.Background(), "trace-1")
	ctx = context_.WithUser(ctx, &domain.User{ID: 42})

	log.InfoContext(ctx, "task created", logging.Group("task", "id", 3))

	out := buf.String()
	for _, want := range []string{"svc.tasksvc", "task created", "task.id=", "trace.id=", "trace-1", "session.user_id=", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}
