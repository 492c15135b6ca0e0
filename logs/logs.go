package logs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the process logger. It writes to stderr at info level until Setup
// is called.
var Logger = newLogger(false, os.Stderr)

// Setup replaces Logger. Verbose logging switches to debug level with
// human-readable timestamps; otherwise entries are JSON at info level.
func Setup(verbose bool, out io.Writer) *logrus.Logger {
	Logger = newLogger(verbose, out)
	if verbose {
		Logger.Debug("debug logging enabled")
	}
	return Logger
}

func newLogger(verbose bool, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if verbose {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	} else {
		l.SetLevel(logrus.InfoLevel)
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return l
}

// LogV prints a formatted log message only when verbose logging is enabled.
func LogV(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}
