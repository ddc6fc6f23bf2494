// Package venv models the layout and lifecycle of a Python virtual environment directory.
package venv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	aidenv "github.com/jonpo-sc/AID/internal/env"
)

// Env describes a virtual environment rooted at a directory.
type Env struct {
	// Dir is the absolute environment root.
	Dir string
}

// New returns an Env for the given directory, resolved to an absolute path.
func New(dir string) (*Env, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve venv dir: %w", err)
	}
	return &Env{Dir: abs}, nil
}

// BinDir returns the scripts directory of the environment
// ("bin" on POSIX systems, "Scripts" on Windows).
func (e *Env) BinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Dir, "Scripts")
	}
	return filepath.Join(e.Dir, "bin")
}

// Python returns the path of the interpreter inside the environment.
func (e *Env) Python() string {
	name := "python"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(e.BinDir(), name)
}

// ConfigPath returns the pyvenv.cfg path that marks a valid environment.
func (e *Env) ConfigPath() string {
	return filepath.Join(e.Dir, "pyvenv.cfg")
}

// Exists reports whether the directory holds a valid virtual environment.
// A directory without pyvenv.cfg is treated as absent so a half-created
// environment is never mistaken for a usable one.
func (e *Env) Exists() bool {
	info, err := os.Stat(e.ConfigPath())
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// Remove deletes the environment directory and everything beneath it.
func (e *Env) Remove() error {
	if err := os.RemoveAll(e.Dir); err != nil {
		return fmt.Errorf("remove venv %q: %w", e.Dir, err)
	}
	return nil
}

// ActivationEnv returns a copy of base with the activation variables applied:
// VIRTUAL_ENV set to the environment root, the scripts directory prepended to
// PATH, and PYTHONHOME dropped. This mirrors what "source bin/activate" does
// for an interactive shell.
func (e *Env) ActivationEnv(base aidenv.Vars) aidenv.Vars {
	out := aidenv.Merge(base)
	out["VIRTUAL_ENV"] = e.Dir

	path := out["PATH"]
	if path == "" {
		out["PATH"] = e.BinDir()
	} else {
		out["PATH"] = e.BinDir() + string(os.PathListSeparator) + path
	}
	delete(out, "PYTHONHOME")
	return out
}

// Describe returns a short human-readable summary used in logs.
func (e *Env) Describe() string {
	state := "missing"
	if e.Exists() {
		state = "present"
	}
	return fmt.Sprintf("%s (%s)", e.Dir, state)
}

// IsInside reports whether path points inside the environment directory.
func (e *Env) IsInside(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(e.Dir, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
