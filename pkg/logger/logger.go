package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the shared application logger. Init must be called before use;
	// it defaults to a stdout-only logger otherwise.
	Logger = logrus.New()

	logMu sync.Mutex
)

// Config controls log level and optional rotated file output.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // empty means stdout only
	MaxSize    int    // MB per log file
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to keep rotated files
	Compress   bool
}

// Init configures the shared logger. Safe to call more than once.
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	})

	writers := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}
	out := io.MultiWriter(writers...)
	Logger.SetOutput(out)

	// Mirror onto the global logrus logger so WithField loggers created
	// elsewhere land in the same file.
	logrus.SetOutput(out)
	logrus.SetLevel(level)

	return nil
}

func Debug(args ...interface{}) { Logger.Debug(args...) }

func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }

func Info(args ...interface{}) { Logger.Info(args...) }

func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

func Warn(args ...interface{}) { Logger.Warn(args...) }

func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

func Error(args ...interface{}) { Logger.Error(args...) }

func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }

// WithFields returns an entry carrying the given fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// ReportError logs a diagnostic for a failure that is being swallowed at an
// adapter boundary. The message should say what could not be done, not why the
// call site continues.
func ReportError(message string, fields map[string]interface{}) {
	if fields == nil {
		Logger.Error(message)
		return
	}
	Logger.WithFields(logrus.Fields(fields)).Error(message)
}

// WithField returns an entry tagged for a subsystem, e.g. "ocean" or "store".
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}
