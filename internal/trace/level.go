package trace

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is an output threshold. The zero value NotSet disables the output.
type Level int

const (
	NotSet Level = iota
	Debug
	Info
	Warning
	Error
	Critical
)

// SlogLevelCritical sits above slog.LevelError, leaving room for ERROR+n.
const SlogLevelCritical = slog.Level(12)

var levelNames = map[Level]string{
	NotSet:   "NOTSET",
	Debug:    "DEBUG",
	Info:     "INFO",
	Warning:  "WARNING",
	Error:    "ERROR",
	Critical: "CRITICAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Slog converts l to the slog level used as a handler threshold.
func (l Level) Slog() slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	case Critical:
		return SlogLevelCritical
	default:
		return slog.LevelDebug
	}
}

// ParseLevel parses a level name case-insensitively. "WARN" is accepted as
// an alias of WARNING and "" as NOTSET.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NOTSET", "NONE":
		return NotSet, nil
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warning, nil
	case "ERROR":
		return Error, nil
	case "CRITICAL":
		return Critical, nil
	default:
		return NotSet, fmt.Errorf("unknown trace level %q", s)
	}
}

// levelLabel renders a slog level with this package's names.
func levelLabel(l slog.Level) string {
	switch {
	case l >= SlogLevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
