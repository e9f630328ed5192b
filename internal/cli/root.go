package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/config"
)

// Version is reported as the service version of emitted telemetry.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Rule       int
	Center     string
	Left       string
	Right      string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the ecaspace CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

// Execute runs the CLI with args, reports a failure in the requested
// format and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if !slices.Contains(ValidFormats, opts.Format) {
		opts.Format = "text"
	}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	out.Error(err)
	return GetExitCode(err)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "ecaspace",
		Short: "Query the space-time of elementary cellular automata",
		Long: `ecaspace evaluates elementary cellular automata at arbitrary (x, t)
coordinates using hash-consed slices, so distant cells cost time
logarithmic in t for regular patterns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML configuration file")
	flags.IntVarP(&opts.Rule, "rule", "r", def.Rule, "Wolfram rule number (0-255)")
	flags.StringVar(&opts.Center, "center", def.Initial.Center, "initial cells from x = 0 as a 0/1 pattern")
	flags.StringVar(&opts.Left, "left", def.Initial.Left, "pattern repeated left of the center")
	flags.StringVar(&opts.Right, "right", def.Initial.Right, "pattern repeated right of the center")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCellCommand(opts))
	cmd.AddCommand(NewRowCommand(opts))
	cmd.AddCommand(NewGridCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTransitionsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// loadConfig reads the configuration file, if any, and applies flags the
// user set explicitly on top of it.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "load config", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("rule") {
		cfg.Rule = o.Rule
	}
	if flags.Changed("center") {
		cfg.Initial.Center = o.Center
	}
	if flags.Changed("left") {
		cfg.Initial.Left = o.Left
	}
	if flags.Changed("right") {
		cfg.Initial.Right = o.Right
	}
	if o.Verbose {
		cfg.Observe.Logging.Enabled = true
		cfg.Observe.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
