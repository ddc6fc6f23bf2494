package cli

import (
	"github.com/spf13/cobra"

	"github.com/jonpo-sc/AID/internal/bootstrap"
	aidenv "github.com/jonpo-sc/AID/internal/env"
)

// newSetupCommand creates the "setup" subcommand that bootstraps the Python environment.
func newSetupCommand(opts *Options) *cobra.Command {
	var (
		recreate   bool
		skipVerify bool
		pythonBin  string
		inlineEnv  string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the virtual environment and install wheels from the local cache",
		Long: "setup creates the project's virtual environment and installs the requirements manifest " +
			"from the local wheel cache with networking disabled (pip --no-index). The first failing " +
			"step aborts the run. Re-running with an unchanged manifest is a no-op.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			extraEnv, err := aidenv.ParseInlineVars(inlineEnv)
			if err != nil {
				return err
			}

			runner := bootstrap.NewRunner(cfg, logger)
			result, err := runner.Run(cmd.Context(), bootstrap.Options{
				Recreate:   recreate,
				SkipVerify: skipVerify,
				Python:     pythonBin,
				ExtraEnv:   extraEnv,
			})
			if err != nil {
				return err
			}

			if result.Reused {
				logger.Info("environment up to date",
					"dir", result.VenvDir,
					"python", result.PythonVersion)
				return nil
			}
			logger.Info("environment ready",
				"dir", result.VenvDir,
				"python", result.PythonVersion,
				"requirements", len(result.Requirements))
			return nil
		},
	}

	cmd.Flags().BoolVar(&recreate, "recreate", false, "Remove an existing environment before creating it")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Skip the post-install pip check step")
	cmd.Flags().StringVar(&pythonBin, "python", "", "Python interpreter to create the environment with")
	cmd.Flags().StringVar(&inlineEnv, "env", "", "Extra environment variables for hooks and installers (comma-separated key=value pairs)")

	return cmd
}
