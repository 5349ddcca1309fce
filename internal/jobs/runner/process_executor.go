package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/interfaces"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// stderrTailSize is how much trailing stderr is kept for diagnostics.
const stderrTailSize = 4096

// defaultWaitDelay bounds how long Wait keeps reading stderr after the job
// process exited or was killed.
const defaultWaitDelay = 5 * time.Second

// ProcessConfig describes how notebooks are launched.
type ProcessConfig struct {
	Program    string
	Args       []string
	Output     string
	WorkingDir string
	Env        map[string]string
	Notebooks  map[models.JobKind]string
	// WaitDelay bounds the wait for stderr once the process is gone.
	// A descendant that escaped the process group can otherwise hold it open.
	WaitDelay time.Duration
}

// ProcessConfigFromConfig builds a ProcessConfig from application configuration.
// The working directory defaults to the storage base dir so notebooks write
// their artifacts where the store reads them.
func ProcessConfigFromConfig(config *common.Config) ProcessConfig {
	workingDir := config.Runner.WorkingDir
	if workingDir == "" {
		workingDir = config.Storage.BaseDir
	}
	notebooks := config.Runner.Notebooks
	return ProcessConfig{
		Program:    config.Runner.Program,
		Args:       append([]string(nil), config.Runner.Args...),
		Output:     config.Runner.Output,
		WorkingDir: workingDir,
		Env:        config.Runner.Env,
		Notebooks: map[models.JobKind]string{
			models.JobKindAnalysis:          notebooks.Analysis,
			models.JobKindDCF:               notebooks.DCF,
			models.JobKindTranscripts:       notebooks.Transcripts,
			models.JobKindTranscriptSummary: notebooks.TranscriptSummary,
		},
	}
}

// ExitError reports a job process that exited with a non-zero status.
type ExitError struct {
	Notebook string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Notebook, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + lastLine(e.Stderr)
	}
	return msg
}

// ProcessExecutor runs each job as a separate papermill-style process:
//
//	<program> <args...> <notebook> <output> -y <yaml parameters>
//
// Each invocation is independent; nothing is shared between processes.
type ProcessExecutor struct {
	config ProcessConfig
	logger arbor.ILogger
}

var _ interfaces.JobExecutor = (*ProcessExecutor)(nil)

// NewProcessExecutor creates a process executor.
func NewProcessExecutor(config ProcessConfig, logger arbor.ILogger) *ProcessExecutor {
	if config.Output == "" {
		config.Output = "-"
	}
	if config.WaitDelay <= 0 {
		config.WaitDelay = defaultWaitDelay
	}
	return &ProcessExecutor{config: config, logger: logger}
}

// Command returns the argv used to run job.
func (e *ProcessExecutor) Command(job *models.JobRequest) ([]string, error) {
	notebook, ok := e.config.Notebooks[job.Kind]
	if !ok || notebook == "" {
		return nil, fmt.Errorf("no notebook configured for job kind %q", job.Kind)
	}

	params, err := yaml.Marshal(job.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	argv := make([]string, 0, len(e.config.Args)+5)
	argv = append(argv, e.config.Program)
	argv = append(argv, e.config.Args...)
	argv = append(argv, notebook, e.config.Output, "-y", string(params))
	return argv, nil
}

// Execute runs the job process and waits for it. Cancelling ctx kills the
// whole process group.
func (e *ProcessExecutor) Execute(ctx context.Context, job *models.JobRequest) error {
	argv, err := e.Command(job)
	if err != nil {
		return err
	}
	notebook := argv[len(argv)-4]

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = e.config.WorkingDir
	cmd.Env = mergeEnv(os.Environ(), e.config.Env)
	cmd.WaitDelay = e.config.WaitDelay
	setProcessGroup(cmd)

	stderr := &tailBuffer{limit: stderrTailSize}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr

	e.logger.Debug().
		Str("job_id", job.ID).
		Str("program", argv[0]).
		Str("notebook", notebook).
		Str("working_dir", cmd.Dir).
		Msg("Starting job process")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return fmt.Errorf("%s cancelled: %w", notebook, ctx.Err())
	case err = <-done:
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		e.logger.Warn().
			Str("job_id", job.ID).
			Str("notebook", notebook).
			Dur("wait_delay", e.config.WaitDelay).
			Msg("Job exited but a child process kept stderr open")
		err = nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Notebook: notebook, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("%s failed: %w", notebook, err)
	}
	return nil
}

// mergeEnv appends extra variables to base in a stable order.
func mergeEnv(base []string, extra map[string]string) []string {
	env := append([]string(nil), base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
