package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/backoffice/core"
)

// RollbarLogger prints entries to a std logger and reports them to Rollbar.
//
// Arguments are interpreted by type:
//   - error: reported as the entry's error, printed on its own line
//   - map[string]interface{}: merged into the entry's extras (later keys win), printed as key=value
//   - core.Principal: the first one becomes the Rollbar person and the "actor" extra
//   - anything else is printed as is
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

type entry struct {
	msg    string
	err    error
	errs   []error
	extras map[string]interface{}
	actor  *core.Principal
	other  []interface{}
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
		case error:
			if e.err == nil {
				e.err = v
			}
			e.errs = append(e.errs, v)
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
		case core.Principal:
			if e.actor == nil {
				p := v
				e.actor = &p
			}
		default:
			e.other = append(e.other, v)
		}
	}
	if e.actor != nil {
		if e.extras == nil {
			e.extras = make(map[string]interface{}, 2)
		}
		e.extras["actor"] = e.actor.ID
		if len(e.actor.Roles) > 0 {
			e.extras["actor_roles"] = strings.Join(e.actor.Roles, ",")
		}
	}
	return e
}

// rollbarArgs returns the arguments understood by the rollbar client: message, error, extras.
func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if e.extras != nil {
		args = append(args, e.extras)
	}
	return args
}

// fields renders the extras as sorted key=value pairs.
func (e entry) fields() string {
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	return b.String()
}

func (l RollbarLogger) prepare(msg string, args []interface{}) entry {
	e := newEntry(msg, args)
	if e.actor != nil {
		rollbar.SetPerson(e.actor.ID, e.actor.Username, e.actor.Email)
	} else {
		rollbar.ClearPerson()
	}
	return e
}

func (l RollbarLogger) print(level string, e entry) {
	l.std.Printf("%s: %s%s\n", level, e.msg, e.fields())
	for _, err := range e.errs {
		l.std.Printf("  %v\n", err)
	}
	for _, arg := range e.other {
		l.std.Printf("  %+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	e := l.prepare(msg, args)
	rollbar.Debug(e.rollbarArgs()...)
	l.print("DEBUG", e)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := l.prepare(msg, args)
	rollbar.Info(e.rollbarArgs()...)
	l.print("INFO", e)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := l.prepare(msg, args)
	rollbar.Warning(e.rollbarArgs()...)
	l.print("WARN", e)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := l.prepare(msg, args)
	rollbar.Error(e.rollbarArgs()...)
	l.print("ERROR", e)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := l.prepare(msg, args)
	rollbar.Critical(e.rollbarArgs()...)
	l.print("FATAL", e)
	l.std.Fatal(msg)
}
