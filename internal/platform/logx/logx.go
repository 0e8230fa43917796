// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

var levelTags = map[Level]string{
	LevelDebug: "DBG",
	LevelInfo:  "INF",
	LevelWarn:  "WRN",
	LevelError: "ERR",
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel convierte un nombre de nivel; valores desconocidos equivalen a info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "warn", "warning", "wrn":
		return LevelWarn
	case "error", "err":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger es el logger clave/valor usado en todo phineas.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// sink es el destino compartido por un logger y todos sus derivados (With):
// un cambio de nivel afecta a todos y las líneas no se entrelazan.
type sink struct {
	mu  sync.Mutex
	w   io.Writer
	lvl Level
	now func() time.Time
}

func (s *sink) enabled(l Level) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return l >= s.lvl
}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, line)
}

type logger struct {
	out   *sink
	scope []string // pares key=value fijos
}

// New crea un logger en stderr con el nivel de PHINEAS_LOG_LEVEL (info por defecto).
func New() Logger {
	return NewWithWriter(os.Stderr, ParseLevel(os.Getenv("PHINEAS_LOG_LEVEL")))
}

// NewWithLevel crea un logger en stderr con un nivel fijo.
func NewWithLevel(lvl Level) Logger {
	return NewWithWriter(os.Stderr, lvl)
}

// NewWithWriter crea un logger que escribe en w (tests, ficheros de log).
func NewWithWriter(w io.Writer, lvl Level) Logger {
	return &logger{out: &sink{w: w, lvl: lvl, now: time.Now}}
}

// NewNop crea un logger que descarta todo.
func NewNop() Logger {
	return NewWithWriter(io.Discard, levelOff)
}

func (l *logger) With(kv ...any) Logger {
	scope := make([]string, 0, len(l.scope)+len(kv)/2+1)
	scope = append(scope, l.scope...)
	return &logger{out: l.out, scope: append(scope, kvPairs(kv...)...)}
}

func (l *logger) SetLevel(lvl Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.lvl = lvl
}

func (l *logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }

// Err registra err a nivel error; un err nil no escribe nada.
func (l *logger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	l.log(LevelError, "", append([]any{"error", err.Error()}, kv...))
}

// log escribe "15:04:05 TAG msg k=v ...".
func (l *logger) log(lvl Level, msg string, kv []any) {
	if !l.out.enabled(lvl) {
		return
	}

	var b strings.Builder
	b.WriteString(l.out.now().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(levelTags[lvl])
	if msg = strings.TrimSpace(msg); msg != "" {
		b.WriteByte(' ')
		b.WriteString(msg)
	}
	for _, f := range l.scope {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	for _, f := range kvPairs(kv...) {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	b.WriteByte('\n')
	l.out.write(b.String())
}

// kvPairs formatea pares clave/valor; una clave sin valor recibe "(missing)"
// y los valores con espacios se entrecomillan.
func kvPairs(kv ...any) []string {
	out := make([]string, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		s := fmt.Sprint(v)
		if strings.ContainsAny(s, " \t\n") {
			s = fmt.Sprintf("%q", s)
		}
		out = append(out, fmt.Sprintf("%v=%s", kv[i], s))
	}
	return out
}
