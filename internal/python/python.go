// Package python provides low-level integration with the Python toolchain via os/exec.
package python

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// DefaultCandidates lists interpreter names probed when none is configured.
var DefaultCandidates = []string{"python3", "python"}

// Client wraps execution of a Python interpreter with optional environment overrides.
type Client struct {
	// Interpreter is the interpreter executable path or name.
	Interpreter string
	// Env replaces the process environment for child processes when non-nil.
	Env []string
	// Stdout and Stderr receive subprocess output; nil falls back to the
	// parent process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewClient constructs a client for the given interpreter.
func NewClient(interpreter string) *Client {
	return &Client{Interpreter: interpreter}
}

// Find returns the first resolvable interpreter from the candidate list,
// falling back to DefaultCandidates when none are given.
func Find(candidates ...string) (string, error) {
	probe := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if strings.TrimSpace(name) != "" {
			probe = append(probe, name)
		}
	}
	if len(probe) == 0 {
		probe = DefaultCandidates
	}
	for _, name := range probe {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found, tried %s", strings.Join(probe, ", "))
}

// CreateVenv creates a virtual environment at dir using "python -m venv".
func (c *Client) CreateVenv(ctx context.Context, dir string) error {
	return c.Run(ctx, "-m", "venv", dir)
}

// Pip runs "python -m pip" with the given arguments.
func (c *Client) Pip(ctx context.Context, args ...string) error {
	return c.Run(ctx, append([]string{"-m", "pip"}, args...)...)
}

// PipCapture runs "python -m pip" and returns its stdout.
func (c *Client) PipCapture(ctx context.Context, args ...string) ([]byte, error) {
	return c.RunCapture(ctx, append([]string{"-m", "pip"}, args...)...)
}

var versionPattern = regexp.MustCompile(`Python (\d+\.\d+(?:\.\d+)?)`)

// Version reports the interpreter version (e.g. "3.11.6").
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.RunCapture(ctx, "--version")
	if err != nil {
		return "", err
	}
	match := versionPattern.FindSubmatch(out)
	if match == nil {
		return "", fmt.Errorf("unexpected python version output %q", strings.TrimSpace(string(out)))
	}
	return string(match[1]), nil
}

// Run executes the interpreter with args, streaming output to the configured writers.
func (c *Client) Run(ctx context.Context, args ...string) error {
	cmd := c.command(ctx, args...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", c.Interpreter, strings.Join(args, " "), err)
	}
	return nil
}

// RunCapture executes the interpreter with args and returns combined output on success.
func (c *Client) RunCapture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := c.command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s %s failed: %s: %w", c.Interpreter, strings.Join(args, " "), msg, err)
		}
		return nil, fmt.Errorf("%s %s failed: %w", c.Interpreter, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Interpreter, args...)
	if c.Env != nil {
		cmd.Env = c.Env
	}
	return cmd
}
