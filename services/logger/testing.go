package logsvc

import (
	"fmt"
	"testing"

	"github.com/Ismat-Samadov/educy/core"
)

// TestLogger forwards everything to the test log so failures carry the
// server-side context. Fatal fails the test instead of exiting.
type TestLogger struct {
	tb testing.TB
}

var _ core.Logger = (*TestLogger)(nil)

func NewTestLogger(tb testing.TB) *TestLogger { return &TestLogger{tb: tb} }

func (l TestLogger) log(level, msg string, args []interface{}) {
	l.tb.Helper()
	line := level + ": " + msg
	for _, arg := range args {
		line += fmt.Sprintf(" | %+v", arg)
	}
	l.tb.Log(line)
}

func (l TestLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l TestLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l TestLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l TestLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }

func (l TestLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.tb.FailNow()
}
