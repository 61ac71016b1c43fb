package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/schoolmap/pkg/debug"
)

// maxSummaryOutput caps stderr shown per hook in Summary.
const maxSummaryOutput = 200

// HookResult records one hook run.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []HookResult
}

// NewExecutor returns an executor for config and the artifact in ctx.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, ctx: ctx}
}

// RunPreExport runs the pre-export hooks. The first failing hook with
// on_error=fail stops the run and its error is returned.
func (e *Executor) RunPreExport() error {
	return e.runPhase(PreExport, e.config.Hooks.PreExport)
}

// RunPostExport runs the post-export hooks.
func (e *Executor) RunPostExport() error {
	return e.runPhase(PostExport, e.config.Hooks.PostExport)
}

func (e *Executor) runPhase(phase HookPhase, hooks []Hook) error {
	for _, h := range hooks {
		res := e.run(phase, h)
		e.results = append(e.results, res)
		if !res.Success && h.OnError == "fail" {
			return fmt.Errorf("%s hook %q failed: %w", phase, h.Name, res.Error)
		}
	}
	return nil
}

func (e *Executor) run(phase HookPhase, h Hook) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), e.ctx.ToEnv()...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Error = fmt.Errorf("timed out after %v", timeout)
	case err != nil:
		res.Error = err
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	default:
		res.Success = true
	}
	debug.Log("hook %s/%s: success=%v in %v", phase, h.Name, res.Success, res.Duration)
	return res
}

// Results returns every hook run so far.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary describes the runs, or "" when no hook ran.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	ok, failed := 0, 0
	var b strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "  - %s (%s): %v\n", r.Hook.Name, r.Phase, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "    stderr: %s\n", truncate(r.Stderr, maxSummaryOutput))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed\n", ok, failed) + b.String()
}

// RunHooks loads dir/hooks.yaml and returns an executor for ctx, or nil
// when hooks are disabled or none are configured.
func RunHooks(dir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks || dir == "" {
		return nil, nil
	}
	l := NewLoader(dir)
	if err := l.Load(); err != nil {
		return nil, err
	}
	for _, w := range l.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !l.HasHooks() {
		return nil, nil
	}
	return NewExecutor(l.Config(), ctx), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
