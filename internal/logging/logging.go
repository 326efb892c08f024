// Package logging sets up structured logging in a uniform way, and
// redirects klog statements into the structured log.
package logging

import (
	"bufio"
	"flag"
	"io"
	"os"
	"regexp"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"k8s.io/klog/v2"
)

// Provided by ldflags during build
var (
	release string
	commit  string
	branch  string
)

// callerDepth makes the "caller" key point at the code that called
// one of the helpers below rather than at the helper itself.
const callerDepth = 4

// Init returns a logger configured with common settings like
// timestamping and source code locations. klog, which client-go
// writes to, is reconfigured to push its logs into this logger. If
// debug is false then Debug() messages are dropped.
//
// Init must be called as early as possible in main(), before any
// Kubernetes client is created.
//
// Logging is fundamental so if something goes wrong this will
// os.Exit(1).
func Init(debug bool) log.Logger {
	l := log.NewJSONLogger(log.NewSyncWriter(os.Stdout))

	r, w, err := os.Pipe()
	if err != nil {
		l.Log("msg", "failed to initialize logging: creating pipe for klog redirection", "error", err)
		os.Exit(1)
	}
	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	fs.Set("logtostderr", "false")
	fs.Set("alsologtostderr", "false")
	klog.SetOutput(w)
	go collectKlogs(r, l)

	logger := New(l, debug)

	Info(logger, "release", release, "commit", commit, "git-branch", branch, "msg", "Starting")

	return logger
}

// New wraps next with level filtering, timestamps and caller
// information.
func New(next log.Logger, debug bool) log.Logger {
	allow := level.AllowInfo()
	if debug {
		allow = level.AllowDebug()
	}
	return log.With(level.NewFilter(next, allow), "ts", log.DefaultTimestampUTC, "caller", log.Caller(callerDepth))
}

// Debug logs keyvals at debug level.
func Debug(logger log.Logger, keyvals ...interface{}) {
	level.Debug(logger).Log(keyvals...)
}

// Info logs keyvals at info level.
func Info(logger log.Logger, keyvals ...interface{}) {
	level.Info(logger).Log(keyvals...)
}

// Error logs keyvals at error level.
func Error(logger log.Logger, keyvals ...interface{}) {
	level.Error(logger).Log(keyvals...)
}

func collectKlogs(f io.ReadCloser, logger log.Logger) {
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var buf []byte
		l, pfx, err := r.ReadLine()
		if err != nil {
			return
		}
		buf = append(buf, l...)
		for pfx {
			l, pfx, err = r.ReadLine()
			if err != nil {
				return
			}
			buf = append(buf, l...)
		}

		lvl, caller, msg := deformat(buf)
		logger.Log("level", lvl, "caller", caller, "msg", msg)
	}
}

var logPrefix = regexp.MustCompile(`^(.)(\d{2})(\d{2}) (\d{2}):(\d{2}):(\d{2}).(\d{6})\s+\d+ ([^:]+:\d+)] (.*)$`)

func deformat(b []byte) (lvl string, caller, msg string) {
	// Default deconstruction used when anything goes wrong.
	lvl = "info"
	caller = ""
	msg = string(b)

	if len(b) < 30 {
		return
	}

	ms := logPrefix.FindSubmatch(b)
	if ms == nil {
		return
	}

	switch ms[1][0] {
	case 'I':
		lvl = "info"
	case 'W':
		lvl = "warn"
	case 'E', 'F':
		lvl = "error"
	}

	caller = string(ms[8])
	msg = string(ms[9])

	return
}
