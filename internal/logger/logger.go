package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ********************************************************
// ********* LOGGING **************************************
// ********************************************************

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	INFORM
	HIGHLIGHT
	WARN
	ERROR
	FATAL
)

// DefaultLogFile is where 'f' and 'b' outputs write unless SetLogFile is called first
const DefaultLogFile = "/tmp/hockey.log"

var (
	mu           sync.Mutex
	base         *logrus.Logger
	logFile      *os.File
	logFilePath  = DefaultLogFile
	showDateTime bool
	minLevel     = INFO
)

func init() {
	base = logrus.New()
	// stdout belongs to the MCP stdio transport, console logging goes to stderr
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.DebugLevel)
	applyFormatter()
}

func applyFormatter() {
	base.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: !showDateTime,
		FullTimestamp:    showDateTime,
		TimestampFormat:  "2006-01-02 15:04:05",
		DisableQuote:     true,
	})
}

func SetShowDateTime(value bool) {
	mu.Lock()
	defer mu.Unlock()
	showDateTime = value
	applyFormatter()
}

// SetLevel sets the lowest level that will be written
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = level
}

// ParseLevel maps a config string such as "debug" or "warn" onto a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "info", "":
		return INFO, nil
	case "inform":
		return INFORM, nil
	case "highlight":
		return HIGHLIGHT, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// SetLogFile changes the file used by the 'f' and 'b' outputs
func SetLogFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	if path != "" {
		logFilePath = path
	}
}

// SetLogOutput sets the output destination for logs
// 'c' for console, 'f' for file, 'b' for both
func SetLogOutput(outputType rune) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	openFile := func() *os.File {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		return f
	}

	switch outputType {
	case 'c':
		base.SetOutput(os.Stderr)
	case 'f':
		logFile = openFile()
		base.SetOutput(logFile)
	case 'b':
		logFile = openFile()
		base.SetOutput(io.MultiWriter(os.Stderr, logFile))
	default:
		fmt.Fprintf(os.Stderr, "Invalid log output type: %c\n", outputType)
		os.Exit(1)
	}
}

// SetWriter points all output at w, used by tests to capture log lines
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case INFORM:
		return "INFORM"
	case HIGHLIGHT:
		return "HIGHLIGHT"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func write(level LogLevel, format string, v ...any) {
	mu.Lock()
	skip := level < minLevel
	mu.Unlock()
	if skip {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file = "unknown"
		line = 0
	}

	msg := format
	primitives, objects := processArgs(v...)
	if len(primitives) > 0 {
		msg = format + " " + strings.Join(primitives, " ")
	}

	entry := base.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
	if level == INFORM || level == HIGHLIGHT {
		entry = entry.WithField("tone", strings.ToLower(level.String()))
	}
	for i, obj := range objects {
		entry = entry.WithField(fmt.Sprintf("obj%d", i), obj)
	}
	// Log, not Fatal, so that the exit below stays in one place
	entry.Log(level.logrusLevel(), msg)
}

// processArgs splits args into printable primitives and JSON encodings of anything else
func processArgs(args ...any) ([]string, []string) {
	if len(args) == 0 {
		return nil, nil
	}

	var primitives []string
	var jsonObjects []string

	for _, arg := range args {
		if isPrimitive(arg) {
			switch v := arg.(type) {
			case float32:
				primitives = append(primitives, fmt.Sprintf("%.2f", v))
			case float64:
				primitives = append(primitives, fmt.Sprintf("%.2f", v))
			case error:
				primitives = append(primitives, v.Error())
			case nil:
				primitives = append(primitives, "nil")
			default:
				primitives = append(primitives, fmt.Sprintf("%v", v))
			}
			continue
		}
		jsonBytes, err := json.Marshal(arg)
		if err != nil {
			primitives = append(primitives, fmt.Sprintf("%v", arg))
			continue
		}
		primitives = append(primitives, fmt.Sprintf("[%s]", reflect.TypeOf(arg)))
		jsonObjects = append(jsonObjects, string(jsonBytes))
	}
	return primitives, jsonObjects
}

func isPrimitive(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, error:
		return true
	default:
		return false
	}
}

// Convenience methods using the default logger
func Debug(format string, v ...any) {
	write(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	write(INFO, format, v...)
}

func Inform(format string, v ...any) {
	write(INFORM, format, v...)
}

func Highlight(format string, v ...any) {
	write(HIGHLIGHT, format, v...)
}

func Warn(format string, v ...any) {
	write(WARN, format, v...)
}

func Error(format string, v ...any) {
	write(ERROR, format, v...)
}

func Fatal(format string, v ...any) {
	write(FATAL, format, v...)
	os.Exit(1)
}
