package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/assetgrid/internal/app"
	"github.com/specialistvlad/assetgrid/internal/hcl_adapter"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Run parses args and executes the selected command, writing all output to
// outW. modules replaces the compiled-in processors when given.
func Run(ctx context.Context, args []string, outW io.Writer, modules ...registry.Module) error {
	slog.Debug("CLI parser started.")
	cfg, err := app.ConfigFromEnv()
	if err != nil {
		return usageError(err)
	}

	root := newRootCommand(cfg, outW, modules)
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(outW)

	err = root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return err
}

// state is shared by the commands of one Run.
type state struct {
	cfg     *app.Config
	outW    io.Writer
	modules []registry.Module
	app     *app.App
}

func newRootCommand(cfg *app.Config, outW io.Writer, modules []registry.Module) *cobra.Command {
	s := &state{cfg: cfg, outW: outW, modules: modules}

	root := &cobra.Command{
		Use:   "assetgrid",
		Short: "Incremental content build orchestrator",
		Long: `assetgrid reads a manifest of content assets, decides which of them are
out of date and runs the processor each asset names to rebuild its outputs.

Settings come from ASSETGRID_* environment variables; flags override them.

Examples:
  assetgrid build assets.hcl --output build
  assetgrid build --platform android --param quality=high
  assetgrid status
  assetgrid processors`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&cfg.ManifestPath, "manifest", "m", cfg.ManifestPath, "Path to a manifest .hcl file or a directory of them")
	pf.StringVar(&cfg.ContentRoot, "content", cfg.ContentRoot, "Content root, overriding content_root from the manifest")
	pf.StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "Output folder")
	pf.StringVar(&cfg.TrackerPath, "tracker", cfg.TrackerPath, "Tracker store file (default <content>/.assetgrid/tracker.*)")
	pf.StringVar(&cfg.TrackerFormat, "tracker-format", cfg.TrackerFormat, "Tracker store format: 'hcl' or 'sqlite'")
	pf.StringVarP(&cfg.Platform, "platform", "p", cfg.Platform, "Bundle to build (sets the Platform build parameter)")
	pf.StringArrayVar(&cfg.Parameters, "param", cfg.Parameters, "Build parameter as key=value, repeatable")
	pf.BoolVar(&cfg.LegacyParameterHash, "legacy-parameter-hash", cfg.LegacyParameterHash, "Hash parameters in declaration order instead of sorted")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Logging level. Options: 'debug', 'verbose', 'info', 'warn', 'error'")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return usageError(err)
		}
		s.app = app.NewApp(outW, cfg, hcl_adapter.NewLoader(), s.modules...)
		slog.Debug("CLI parameter validation complete.", "command", cmd.Name())
		return nil
	}

	root.AddCommand(
		s.buildCommand(),
		s.statusCommand(),
		s.validateCommand(),
		s.pruneCommand(),
		s.cleanCommand(),
		s.processorsCommand(),
		versionCommand(outW),
	)
	return root
}

// manifestArg lets the manifest be given as the only positional argument.
func (s *state) manifestArg(args []string) {
	if len(args) == 1 {
		s.cfg.ManifestPath = args[0]
	}
}

func versionCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// The root pre-run builds the app, which version does not need.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(outW, "assetgrid %s\n", app.Version)
		},
	}
}
