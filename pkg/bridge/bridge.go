// Package bridge invokes named host commands asynchronously. The canvas
// never waits on or reads a result; callers that care receive it on a
// channel.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrNotAllowed is returned for commands outside a runner's allow list.
var ErrNotAllowed = errors.New("command not allowed")

// Runner executes one named command.
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args []string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return f(ctx, name, args)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	Allow   []string      // permitted command names; empty permits none
	Dir     string        // working directory; empty means the current one
	Timeout time.Duration // per-command limit; zero means none
}

// Run executes name with args and returns its standard output.
func (r ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	if !r.allowed(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotAllowed)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (r ExecRunner) allowed(name string) bool {
	for _, a := range r.Allow {
		if a == name {
			return true
		}
	}
	return false
}

// Result is the outcome of one invocation.
type Result struct {
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
	Err    error  `json:"-"`
}

// ErrString returns the invocation error text, or "".
func (r Result) ErrString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Bridge dispatches invocations to a Runner on their own goroutines.
type Bridge struct {
	runner Runner
	log    *slog.Logger
	wg     sync.WaitGroup
}

// New returns a bridge over runner. A nil logger discards.
func New(runner Runner, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bridge{runner: runner, log: logger}
}

// Invoke starts name asynchronously. The returned channel receives exactly
// one Result and is then closed; it is buffered so abandoning it never
// blocks the invocation.
func (b *Bridge) Invoke(ctx context.Context, name string, args ...string) <-chan Result {
	ch := make(chan Result, 1)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(ch)

		start := time.Now()
		out, err := b.runner.Run(ctx, name, args)
		res := Result{Name: name, Output: string(out), Err: err}
		if err != nil {
			b.log.Warn("invoke failed", "cmd", name, "err", err, "elapsed", time.Since(start))
		} else {
			b.log.Debug("invoked", "cmd", name, "bytes", len(out), "elapsed", time.Since(start))
		}
		ch <- res
	}()
	return ch
}

// Fire starts name and discards its result.
func (b *Bridge) Fire(ctx context.Context, name string, args ...string) {
	b.Invoke(ctx, name, args...)
}

// Wait blocks until every started invocation has finished.
func (b *Bridge) Wait() {
	b.wg.Wait()
}
