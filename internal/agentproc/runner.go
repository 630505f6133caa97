// Package agentproc runs the cursor-agent CLI on behalf of the local
// feedback server, either interactively under a pty or as a one-shot
// print invocation.
package agentproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/creack/pty"

	"github.com/anyclick/anyclick/internal/debug"
)

// AgentCommand is the executable the runner drives.
const AgentCommand = "cursor-agent"

// Mode selects how feedback is delivered to the agent.
type Mode string

const (
	// ModeInteractive keeps a long-lived agent session under a pty and
	// streams feedback into it.
	ModeInteractive Mode = "interactive"

	// ModePrint runs one agent invocation per feedback and captures its
	// output.
	ModePrint Mode = "print"
)

// ValidMode reports whether m names a supported mode.
func ValidMode(m Mode) bool {
	return m == ModeInteractive || m == ModePrint
}

// State is the runner lifecycle state.
type State int32

const (
	StatePending State = iota
	StateStarting
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Runner errors.
var (
	ErrNotInstalled = errors.New("cursor-agent is not installed")
	ErrInvalidState = errors.New("invalid runner state")
	ErrNotRunning   = errors.New("agent session is not running")
)

// Installed reports whether cursor-agent is available on PATH.
func Installed() bool {
	_, err := exec.LookPath(AgentCommand)
	return err == nil
}

// Runner manages one agent session.
type Runner struct {
	// Dir is the working directory for the agent.
	Dir string

	// Model selects the agent model; empty uses the agent default.
	Model string

	state atomic.Int32

	mu   sync.Mutex
	cmd  *exec.Cmd
	ptmx *os.File
	wg   sync.WaitGroup
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	return State(r.state.Load())
}

// compareAndSwapState transitions the state atomically.
func (r *Runner) compareAndSwapState(from, to State) bool {
	return r.state.CompareAndSwap(int32(from), int32(to))
}

// StartInteractive launches a long-lived agent session under a pty.
// The runner must be pending.
func (r *Runner) StartInteractive(ctx context.Context) error {
	if !Installed() {
		return ErrNotInstalled
	}
	if !r.compareAndSwapState(StatePending, StateStarting) {
		return fmt.Errorf("%w: cannot start session (state: %s)", ErrInvalidState, r.State())
	}

	args := []string{}
	if r.Model != "" {
		args = append(args, "--model", r.Model)
	}

	cmd := exec.CommandContext(ctx, AgentCommand, args...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		r.state.Store(int32(StateFailed))
		return fmt.Errorf("failed to start %s: %w", AgentCommand, err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.ptmx = ptmx
	r.mu.Unlock()
	r.state.Store(int32(StateRunning))

	debug.Info("agentproc", "interactive session started (pid %d)", cmd.Process.Pid)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := cmd.Wait()
		if err != nil {
			r.state.Store(int32(StateFailed))
			debug.Warn("agentproc", "session exited: %v", err)
		} else {
			r.state.Store(int32(StateDone))
		}
		r.mu.Lock()
		if r.ptmx != nil {
			r.ptmx.Close()
			r.ptmx = nil
		}
		r.mu.Unlock()
	}()

	return nil
}

// Send writes feedback text into the interactive session.
func (r *Runner) Send(text string) error {
	if r.State() != StateRunning {
		return ErrNotRunning
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ptmx == nil {
		return ErrNotRunning
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := r.ptmx.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write to agent session: %w", err)
	}
	return nil
}

// Stop terminates an interactive session.
func (r *Runner) Stop() {
	r.mu.Lock()
	cmd := r.cmd
	r.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	r.wg.Wait()
}

// RunPrint executes one non-interactive agent invocation with the prompt
// and returns its combined output.
func RunPrint(ctx context.Context, dir, model, prompt string) (string, error) {
	if !Installed() {
		return "", ErrNotInstalled
	}

	args := []string{"-p", "--output-format", "text"}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, prompt)

	cmd := exec.CommandContext(ctx, AgentCommand, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s failed: %w", AgentCommand, err)
	}
	return out.String(), nil
}
