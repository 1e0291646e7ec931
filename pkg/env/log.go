// Package env sets up the runtime environment of the daemon
package env

import (
	golog "log"
	"os"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/inconshreveable/log15.v2"
)

// logging prefixes for different log levels
// see <http://0pointer.de/public/systemd-man/sd-daemon.html>
const (
	sdCrit    = "<2>"
	sdErr     = "<3>"
	sdWarning = "<4>"
	sdInfo    = "<6>"
	sdDebug   = "<7>"
)

// Log is the default logger
var Log log15.Logger

func init() {
	// new-style daemons log to stderr and leave routing to the supervisor
	// see <http://0pointer.de/public/systemd-man/daemon.html#New-Style%20Daemons>
	Log = log15.New()
	Log.SetHandler(log15.StreamHandler(os.Stderr, DaemonFormat()))
	golog.SetOutput(logBridge{Log})
	err := mysql.SetLogger(mysqlLog{})
	if err != nil {
		Log.Crit("error setting up mysql log", log15.Ctx{"err": err})
	}
}

// DaemonFormat returns a log15.Format writing logfmt records prefixed with
// the sd-daemon level tag
func DaemonFormat() log15.Format {
	logfmt := log15.LogfmtFormat()
	return log15.FormatFunc(func(r *log15.Record) []byte {
		var prefix string
		switch r.Lvl {
		case log15.LvlCrit:
			prefix = sdCrit
		case log15.LvlError:
			prefix = sdErr
		case log15.LvlWarn:
			prefix = sdWarning
		case log15.LvlInfo:
			prefix = sdInfo
		case log15.LvlDebug:
			prefix = sdDebug
		}
		return append([]byte(prefix), logfmt.Format(r)...)
	})
}

// logBridge acts as a Writer for the log pkg
// It will log to log15
type logBridge struct {
	log log15.Logger
}

// logBridge Writer implementation
// will log all log pkg messages as log15.Info messages
func (l logBridge) Write(msg []byte) (int, error) {
	l.log.Info("log pkg message", log15.Ctx{"message": string(msg)})
	return len(msg), nil
}

type mysqlLog struct{}

func (m mysqlLog) Print(v ...interface{}) {
	Log.Warn("mysql log", log15.Ctx{"mysqlLog": v})
}
