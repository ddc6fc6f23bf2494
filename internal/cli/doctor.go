package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonpo-sc/AID/internal/config"
	"github.com/jonpo-sc/AID/internal/manifest"
	"github.com/jonpo-sc/AID/internal/python"
	"github.com/jonpo-sc/AID/internal/venv"
	"github.com/jonpo-sc/AID/internal/wheels"
)

// newDoctorCommand creates the "doctor" subcommand that runs environment preflight checks.
func newDoctorCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run bootstrap preflight checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			if err := runDoctorChecks(ctx, logger, cfg); err != nil {
				return err
			}

			logger.Info("doctor checks completed successfully")
			return nil
		},
	}

	return cmd
}

func runDoctorChecks(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	var fatalErrs []error

	interpreter, err := python.Find(cfg.Bootstrap.Python)
	if err != nil {
		logger.Error("python interpreter check failed", "error", err)
		fatalErrs = append(fatalErrs, err)
	} else {
		client := python.NewClient(interpreter)

		if version, err := client.Version(ctx); err != nil {
			logger.Error("python version check failed", "error", err)
			fatalErrs = append(fatalErrs, err)
		} else {
			logger.Info("python interpreter ok", "path", interpreter, "version", version)
		}

		if _, err := client.RunCapture(ctx, "-m", "venv", "--help"); err != nil {
			logger.Error("venv module check failed", "error", err)
			fatalErrs = append(fatalErrs, err)
		} else {
			logger.Info("venv module ok")
		}

		if out, err := client.PipCapture(ctx, "--version"); err != nil {
			logger.Error("pip module check failed", "error", err)
			fatalErrs = append(fatalErrs, err)
		} else {
			logger.Info("pip module ok", "version", firstLine(out))
		}
	}

	var m *manifest.Manifest
	requirementsPath := cfg.ResolvePath(cfg.Bootstrap.Requirements)
	if m, err = manifest.LoadFile(requirementsPath); err != nil {
		logger.Error("requirements manifest check failed", "error", err)
		fatalErrs = append(fatalErrs, err)
	} else {
		logger.Info("requirements manifest ok", "path", requirementsPath, "entries", len(m.Requirements))
	}

	wheelDir := cfg.ResolvePath(cfg.Bootstrap.WheelDir)
	idx, err := wheels.Scan(wheelDir, logger)
	if err != nil {
		logger.Error("wheel cache check failed", "error", err)
		fatalErrs = append(fatalErrs, err)
	} else {
		logger.Info("wheel cache ok", "dir", idx.Dir, "distributions", idx.Len())
		if m != nil {
			if err := idx.Coverage(m); err != nil {
				logger.Error("wheel coverage check failed", "error", err)
				fatalErrs = append(fatalErrs, err)
			} else {
				logger.Info("wheel coverage ok")
			}
		}
	}

	if environment, err := venv.New(cfg.ResolvePath(cfg.Bootstrap.VenvDir)); err == nil {
		logger.Info("virtual environment", "status", environment.Describe())
	}

	return errors.Join(fatalErrs...)
}

// firstLine returns the first output line as a string for compact logging.
func firstLine(out []byte) string {
	for i, b := range out {
		if b == '\n' || b == '\r' {
			return string(out[:i])
		}
	}
	return string(out)
}
