// Package bootstrap contains the high-level orchestration logic for environment setup.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonpo-sc/AID/internal/config"
	aidenv "github.com/jonpo-sc/AID/internal/env"
	"github.com/jonpo-sc/AID/internal/hooks"
	"github.com/jonpo-sc/AID/internal/logging"
	"github.com/jonpo-sc/AID/internal/manifest"
	"github.com/jonpo-sc/AID/internal/python"
	"github.com/jonpo-sc/AID/internal/state"
	"github.com/jonpo-sc/AID/internal/venv"
	"github.com/jonpo-sc/AID/internal/wheels"
)

// Options controls a single bootstrap run.
type Options struct {
	// Recreate removes an existing environment before creating a new one.
	Recreate bool
	// SkipVerify disables the post-install "pip check" step.
	SkipVerify bool
	// Python overrides the configured interpreter.
	Python string
	// ExtraEnv is added to the environment of hooks and of the tools run
	// inside the virtual environment.
	ExtraEnv aidenv.Vars
}

// Result summarizes a completed bootstrap run.
type Result struct {
	// VenvDir is the absolute environment directory.
	VenvDir string
	// Python is the interpreter the environment was created with.
	Python string
	// PythonVersion is the interpreter version inside the environment.
	PythonVersion string
	// Requirements lists the normalized names installed from the manifest.
	Requirements []string
	// Reused is true when a matching receipt made the install a no-op.
	Reused bool
}

// Runner executes the bootstrap pipeline: preflight, venv creation,
// offline wheel install, receipt, hooks. Every step is fail-fast; the
// first error aborts the run and propagates to the caller.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	hooks  *hooks.Executor
}

// NewRunner constructs a Runner for the given configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger,
		hooks:  hooks.NewExecutor(logger),
	}
}

// Run performs the bootstrap and returns its result.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	bcfg := r.cfg.Bootstrap

	requirementsPath := r.cfg.ResolvePath(bcfg.Requirements)
	wheelDir := r.cfg.ResolvePath(bcfg.WheelDir)
	venvDir := r.cfg.ResolvePath(bcfg.VenvDir)

	environment, err := venv.New(venvDir)
	if err != nil {
		return nil, err
	}

	// A recreate would delete the manifest or the wheel cache along with the
	// environment, so neither may live inside it.
	for _, path := range []string{requirementsPath, wheelDir} {
		if environment.IsInside(path) {
			return nil, fmt.Errorf("%s is inside the environment directory %s", path, environment.Dir)
		}
	}

	// Preflight: parse the manifest and prove the wheel cache can satisfy it
	// before the environment directory is touched.
	m, err := manifest.LoadFile(requirementsPath)
	if err != nil {
		return nil, err
	}

	idx, err := wheels.Scan(wheelDir, r.logger)
	if err != nil {
		return nil, err
	}
	if err := idx.Coverage(m); err != nil {
		return nil, err
	}
	r.logger.Info("wheel cache covers manifest", "wheels", idx.Len(), "requirements", len(m.Requirements), "dir", idx.Dir)

	interpreter := opts.Python
	if interpreter == "" {
		interpreter = bcfg.Python
	}
	interpreter, err = python.Find(interpreter)
	if err != nil {
		return nil, err
	}

	baseVars := aidenv.Merge(aidenv.FromOS(), opts.ExtraEnv)
	if err := r.hooks.RunSteps(ctx, "beforeSetup", r.cfg.Hooks.BeforeSetup, r.cfg.BaseDir, baseVars); err != nil {
		return nil, err
	}

	if opts.Recreate && environment.Exists() {
		r.logger.Info("removing existing environment", "dir", environment.Dir)
		if err := environment.Remove(); err != nil {
			return nil, err
		}
	}

	if !environment.Exists() {
		r.logger.Info("creating virtual environment", "dir", environment.Dir, "python", interpreter)
		base := python.NewClient(interpreter)
		base.Stdout = logging.NewWriter(r.logger, "venv")
		base.Stderr = logging.NewWriter(r.logger, "venv")
		if err := base.CreateVenv(ctx, environment.Dir); err != nil {
			return nil, err
		}
	} else {
		r.logger.Info("reusing existing environment", "dir", environment.Dir)
	}

	// Activation: every tool below runs with VIRTUAL_ENV set and the
	// environment's scripts directory first on PATH.
	activated := environment.ActivationEnv(baseVars)
	activated["PIP_NO_INDEX"] = "1"

	inside := python.NewClient(environment.Python())
	inside.Env = activated.ToList()
	inside.Stdout = logging.NewWriter(r.logger, "pip")
	inside.Stderr = logging.NewWriter(r.logger, "pip")

	version, err := inside.Version(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		VenvDir:       environment.Dir,
		Python:        interpreter,
		PythonVersion: version,
		Requirements:  m.Names(),
	}

	store := state.NewStore(environment.Dir)
	hash, err := state.HashManifest(requirementsPath)
	if err != nil {
		return nil, err
	}

	if !opts.Recreate {
		receipt, err := store.Load()
		switch {
		case err == nil && receipt.Matches(hash):
			r.logger.Info("environment already satisfies manifest", "dir", environment.Dir, "receipt", store.Path())
			result.Reused = true
		case err != nil && !errors.Is(err, state.ErrNoReceipt):
			return nil, err
		}
	}

	if !result.Reused {
		// Drop any stale receipt first so an interrupted install can never
		// be mistaken for a completed one.
		if err := store.Clear(); err != nil {
			return nil, err
		}

		r.logger.Info("installing requirements", "manifest", requirementsPath, "wheels", idx.Dir)
		installArgs := []string{
			"install",
			"--no-index",
			"--find-links", idx.Dir,
			"-r", requirementsPath,
		}
		if err := inside.Pip(ctx, installArgs...); err != nil {
			return nil, err
		}

		if !opts.SkipVerify {
			if err := inside.Pip(ctx, "check"); err != nil {
				return nil, fmt.Errorf("installed packages failed verification: %w", err)
			}
		}

		rawLines := make([]string, 0, len(m.Requirements))
		for _, req := range m.Requirements {
			rawLines = append(rawLines, req.Raw)
		}
		if err := store.Write(&state.Receipt{
			ManifestHash:  hash,
			Requirements:  rawLines,
			PythonVersion: version,
			WheelDir:      idx.Dir,
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
	}

	if err := r.hooks.RunSteps(ctx, "afterSetup", r.cfg.Hooks.AfterSetup, r.cfg.BaseDir, activated); err != nil {
		return nil, err
	}

	return result, nil
}
