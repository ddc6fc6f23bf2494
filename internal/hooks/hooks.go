// Package hooks contains the hook execution layer used around bootstrap runs.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/jonpo-sc/AID/internal/config"
	aidenv "github.com/jonpo-sc/AID/internal/env"
	"github.com/jonpo-sc/AID/internal/logging"
)

// Executor runs configured shell hook steps.
type Executor struct {
	logger *slog.Logger
	// Shell is the shell binary used for steps, "sh" by default.
	Shell string
}

// NewExecutor constructs an Executor bound to the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{logger: logger, Shell: "sh"}
}

// RunSteps executes the given steps in order inside dir with the provided
// variables. The first failing step aborts the sequence.
func (e *Executor) RunSteps(ctx context.Context, phase string, steps []config.HookStep, dir string, vars aidenv.Vars) error {
	for i, step := range steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			name = fmt.Sprintf("%s[%d]", phase, i)
		}
		if strings.TrimSpace(step.Run) == "" {
			return fmt.Errorf("hook %s has an empty run command", name)
		}

		e.logger.Info("running hook", "phase", phase, "hook", name)

		cmd := exec.CommandContext(ctx, e.Shell, "-c", step.Run)
		cmd.Dir = dir
		cmd.Env = aidenv.Merge(vars, aidenv.Vars(step.Env)).ToList()

		out := logging.NewWriter(e.logger, "hook:"+name)
		cmd.Stdout = out
		cmd.Stderr = out

		if err := cmd.Run(); err != nil {
			return fmt.Errorf("hook %s failed: %w", name, err)
		}
	}
	return nil
}
