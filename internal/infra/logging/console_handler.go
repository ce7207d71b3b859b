package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeBold      = "\033[1m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// consoleLock serializes writes of all console handlers sharing an output.
//
//nolint:gochecknoglobals
var consoleLock sync.Mutex

// loggerKey is the attribute GetLogger uses to name a logger.
const loggerKey = "logger"

// ConsoleHandler implements slog.Handler with colored, human-readable output
// suitable for development environments.
type ConsoleHandler struct {
	// Output is the destination for log output (typically os.Stdout or os.Stderr)
	Output io.Writer
	// Level is the minimum level for log records to be processed
	Level slog.Leveler
	// PkgLevels maps logger name prefixes ("repo", "svc.tasksvc") to minimum log levels
	PkgLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	name, attrs := splitLoggerName(attrs)

	threshold := h.Level.Level()
	if level, ok := levelForName(h.PkgLevels, name); ok {
		threshold = level
	}

	if r.Level < threshold {
		return nil
	}

	var sb strings.Builder

	sb.WriteString(ansiCodeGray + r.Time.Format("15:04:05.000000") + ansiCodeReset)
	sb.WriteString(" " + ansiCodeMap[r.Level] + "[" + r.Level.String() + "]" + ansiCodeReset)

	if name != "" {
		sb.WriteString(" " + ansiCodeBold + name + ansiCodeReset)
	}

	sb.WriteString(" " + r.Message)

	if len(attrs) > 0 {
		var prefix string
		if len(h.groups) > 0 {
			prefix = strings.Join(h.groups, ".") + "."
		}

		sb.WriteString(" " + ansiCodeGray + "|" + ansiCodeReset)
		renderAttrs(&sb, prefix, attrs)
	}

	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		fn := strings.Split(frame.Function, string(os.PathSeparator))

		sb.WriteString("\n-> " + ansiCodeGray + fn[len(fn)-1] + "()")
		sb.WriteString(" in " + ansiCodeUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiCodeReset)
	}

	consoleLock.Lock()
	defer consoleLock.Unlock()

	if _, err := fmt.Fprintln(h.Output, sb.String()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	return nil
}

func splitLoggerName(attrs []slog.Attr) (string, []slog.Attr) {
	for i, attr := range attrs {
		if attr.Key == loggerKey {
			rest := make([]slog.Attr, 0, len(attrs)-1)
			rest = append(rest, attrs[:i]...)
			rest = append(rest, attrs[i+1:]...)

			return attr.Value.String(), rest
		}
	}

	return "", attrs
}

func renderAttrs(sb *strings.Builder, prefix string, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			renderAttrs(sb, prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		sb.WriteString(" " + prefix + attr.Key)
		sb.WriteString("=" + ansiCodeGray + attr.Value.String() + ansiCodeReset)
	}
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)

	return &clone
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)

	return &clone
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.Level.Level() <= level {
		return true
	}

	// a package override may lower the threshold below the global level
	for _, pkgLevel := range h.PkgLevels {
		if pkgLevel <= level {
			return true
		}
	}

	return false
}
