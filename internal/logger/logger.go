package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cloudemu/zero/internal/constants"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
)

// Initialize sets up the global slog logger based on the environment
func Initialize(env constants.Environment, level slog.Level) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, env, level))
	slog.SetDefault(logger)
	slog.Debug("logger initialized", "env", env, "level", level)

	return logger
}

// NewHandler returns the handler used for env: JSON in production,
// a colored tint handler everywhere else.
func NewHandler(w io.Writer, env constants.Environment, level slog.Level) slog.Handler {
	if env == constants.Production {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.TimeOnly,
		NoColor:     color.NoColor,
		ReplaceAttr: replaceAttrForDev,
	})
}

// ParseLevel converts a textual level (debug, info, warn, error) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// replaceAttrForDev flattens map values into sorted key=value pairs so they
// stay readable on a single terminal line.
func replaceAttrForDev(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindAny {
		return a
	}
	switch a.Value.Any().(type) {
	case map[string]any, map[string]string:
		prefix := strings.Join(append(groups, a.Key), ".")
		return slog.String(a.Key, flattenMapAttr(prefix, a.Value.Any()))
	}
	return a
}

func flattenMapAttr(prefix string, value any) string {
	pairs := make([]string, 0)

	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	switch m := value.(type) {
	case map[string]string:
		for k, v := range m {
			pairs = append(pairs, join(k)+"="+v)
		}
	case map[string]any:
		for k, v := range m {
			switch v.(type) {
			case map[string]any, map[string]string:
				pairs = append(pairs, flattenMapAttr(join(k), v))
			default:
				pairs = append(pairs, fmt.Sprintf("%s=%v", join(k), v))
			}
		}
	default:
		return fmt.Sprintf("%v", value)
	}

	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}
