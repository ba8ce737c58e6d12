package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output formats accepted by Options.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatAuto = "auto"
)

// Options configures the process logger.
type Options struct {
	Service string
	Env     string
	// Level is parsed with slog.Level.UnmarshalText; empty means info.
	Level string
	// Format is json, text or auto. Auto picks text on a terminal.
	Format string
	// File, when set, routes output through a rotating file instead of stdout.
	File string
	// Output overrides stdout. It is ignored when File is set.
	Output io.Writer
}

// Setup installs a JSON logger on stderr with default options. It is the
// bootstrap logger used before a configuration has been loaded.
func Setup(service, env string) *slog.Logger {
	logger, _, err := New(Options{Service: service, Env: env, Output: os.Stderr})
	if err != nil {
		// Defaults cannot fail to parse.
		panic(err)
	}
	return logger
}

// New builds a logger from opts, installs it as the slog and log default and
// returns a closer for the rotating file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.Output != nil {
		out = opts.Output
	}
	if path := strings.TrimSpace(opts.File); path != "" {
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out, closer = rotating, rotating
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = FormatJSON
	}
	if format == FormatAuto {
		format = FormatJSON
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = FormatText
		}
	}

	handlerOpts := &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: replaceAttr,
	}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	case FormatText:
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		return nil, nil, fmt.Errorf("log format %q not supported", opts.Format)
	}

	attrs := []slog.Attr{
		slog.String("service", strings.TrimSpace(opts.Service)),
	}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	// Bridge the standard library logger so existing packages continue to work.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func replaceAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return attr
	}
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: attr.Value}
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: attr.Value}
	}
	return attr
}
