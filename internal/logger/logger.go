package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// FormatConsole selects zerolog's human readable writer for stdout.
const FormatConsole = "console"

// Options configures InitLogging.
type Options struct {
	FilePath string
	Level    string
	// Format is "json" (default) or "console". The log file is always JSON.
	Format  string
	Service string
}

// globalLogger stays silent until InitLogging runs, so packages can log from tests.
var globalLogger = zerolog.Nop()

var once sync.Once

// InitLogging configures the global zerolog logger. Only the first call takes effect.
func InitLogging(opts Options) {
	once.Do(func() {
		globalLogger = build(opts, os.Stdout)
		log.Logger = globalLogger
	})
}

func build(opts Options, stdout io.Writer) zerolog.Logger {
	if strings.EqualFold(opts.Format, FormatConsole) {
		stdout = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}
	writers := []io.Writer{stdout}

	if opts.FilePath != "" {
		file, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			os.Stderr.WriteString("Failed to open log file: " + err.Error() + "\n")
		} else {
			writers = append(writers, file)
		}
	}

	lc := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Service != "" {
		lc = lc.Str("service", opts.Service)
	}
	return lc.Logger().Level(parseLevel(opts.Level))
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithLogger returns a context whose logger carries fields in addition to the current ones.
func WithLogger(ctx context.Context, fields map[string]interface{}) context.Context {
	l := getLogger(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

func getLogger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	// disabled means nothing was attached to ctx
	if l.GetLevel() == zerolog.Disabled {
		return &globalLogger
	}
	return l
}

func DebugLog(ctx context.Context, msg string, args ...interface{}) {
	getLogger(ctx).Debug().Msgf(msg, args...)
}

func InfoLog(ctx context.Context, msg string, args ...interface{}) {
	getLogger(ctx).Info().Msgf(msg, args...)
}

func WarnLog(ctx context.Context, msg string, args ...interface{}) {
	getLogger(ctx).Warn().Msgf(msg, args...)
}

// ErrorLog logs at error level. A lone error argument is attached as the "error" field
// and a trailing ": %v" is dropped from msg.
func ErrorLog(ctx context.Context, msg string, args ...interface{}) {
	l := getLogger(ctx)
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			l.Error().Err(err).Msg(strings.TrimSuffix(strings.TrimSpace(msg), ": %v"))
			return
		}
	}
	if len(args) == 0 {
		l.Error().Msg(msg)
		return
	}
	l.Error().Msgf(msg, args...)
}

// Event returns a structured info event for callers that want typed fields.
func Event(ctx context.Context) *zerolog.Event {
	return getLogger(ctx).Info()
}
