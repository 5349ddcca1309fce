package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// CrashReporter writes a report file when the process panics outside any
// job. Job panics never reach it; the runner turns them into outcomes.
type CrashReporter struct {
	Dir  string
	Args []string
	now  func() time.Time
}

// NewCrashReporter creates a reporter writing into dir.
func NewCrashReporter(dir string, args []string) *CrashReporter {
	if dir == "" {
		dir = "logs"
	}
	return &CrashReporter{Dir: dir, Args: args, now: time.Now}
}

// Recover must be deferred. It writes the report and exits with status 1.
func (c *CrashReporter) Recover() {
	r := recover()
	if r == nil {
		return
	}
	path, err := c.Write(r, string(debug.Stack()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "panic: %v (crash report not written: %v)\n", r, err)
	} else {
		fmt.Fprintf(os.Stderr, "panic: %v (crash report: %s)\n", r, path)
	}
	os.Exit(1)
}

// Write stores the crash report and returns its path.
func (c *CrashReporter) Write(panicVal interface{}, stack string) (string, error) {
	now := c.now()

	var report strings.Builder
	fmt.Fprintf(&report, "=== STOCK ANALYZER CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&report, "Version: %s\n", GetFullVersion())
	fmt.Fprintf(&report, "Command: %s\n", strings.Join(c.Args, " "))
	fmt.Fprintf(&report, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&report, "Goroutines: %d\n\n", runtime.NumGoroutine())
	fmt.Fprintf(&report, "=== PANIC ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK ===\n%s\n", stack)

	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(c.Dir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))
	if err := os.WriteFile(path, []byte(report.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}
