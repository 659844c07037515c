// Package cmd builds the zero command tree and maps an invocation to an
// exit status.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cloudemu/zero/internal/constants"
	apperrors "github.com/cloudemu/zero/internal/errors"
	"github.com/cloudemu/zero/internal/output"
	"github.com/cloudemu/zero/internal/zerocli"

	"github.com/spf13/cobra"
)

// Dispatcher executes a parsed invocation.
type Dispatcher func(ctx context.Context, cli *zerocli.Cli) error

// Run parses args, hands the result to dispatch and returns the process
// exit status. Help and version requests never reach dispatch.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, dispatch Dispatcher) int {
	cli, err := Parse(args, stdout, stderr)
	if err != nil {
		return apperrors.ExitCode(err)
	}
	if cli == nil {
		return apperrors.ExitOK
	}

	if err = dispatch(ctx, cli); err != nil {
		_, _ = fmt.Fprintln(stderr, apperrors.FormatChain(err))
		if errors.Is(err, apperrors.ErrUsage) {
			return apperrors.ExitUsage
		}
		return apperrors.ExitFailure
	}
	return apperrors.ExitOK
}

// Parse turns args into a Cli. It returns a nil Cli and a nil error when
// the invocation was fully answered by the parser (--help, --version).
// Malformed input is reported on stderr and returned wrapped in ErrUsage.
func Parse(args []string, stdout, stderr io.Writer) (*zerocli.Cli, error) {
	if args == nil {
		args = []string{}
	}

	p := &parser{}
	root := p.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	failed, err := root.ExecuteC()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		_, _ = fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", failed.CommandPath())
		return nil, apperrors.UsageError(err)
	}
	if p.cli.Command == nil {
		return nil, nil
	}

	p.cli.Stdout = stdout
	p.cli.Stderr = stderr
	return &p.cli, nil
}

// parser collects flag values for one Parse call.
type parser struct {
	cli     zerocli.Cli
	timeout string
	output  string
}

func (p *parser) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     constants.ProjectName,
		Short:   constants.ProductName + " private cloud CLI",
		Long:    constants.ProductName + " private cloud CLI: compute, storage and cloud services on your own machine",
		Version: *constants.GetVersion(),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return errors.New("a command is required")
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return p.resolveGlobals()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.BoolVar(&p.cli.Native, "native", false, "Force native OS drivers (Hyper-V / KVM) instead of Docker")
	flags.StringVar(&p.cli.Endpoint, "endpoint", "", "Send commands to a remote `zero serve` endpoint")
	flags.StringVarP(&p.output, "output", "o", string(constants.OutputText), "Output format: text, json or yaml")
	flags.StringVar(&p.timeout, "timeout", constants.DefaultCLITimeout.String(),
		"Timeout for command execution (e.g., 10m, 30s, 1h, 0 to disable)")
	flags.StringVar(&p.cli.ConfigPath, "config", "", "Path to the config file (default ~/.zero/config.yaml)")
	flags.BoolVar(&p.cli.Debug, "debug", false, "Enable debugging logs")
	flags.BoolVar(&p.cli.Verbose, "verbose", false, "Verbose output")

	root.AddCommand(
		p.workloadCmd(),
		p.volumeCmd(),
		p.nodeCmd(),
		p.networkCmd(),
		p.storeCmd(),
		p.dbCmd(),
		p.funcCmd(),
		p.queueCmd(),
		p.iamCmd(),
		p.lbCmd(),
		p.eksCmd(),
		p.serveCmd(),
		p.eventsCmd(),
	)
	return root
}

// resolveGlobals validates the global flags that need more than a type check.
func (p *parser) resolveGlobals() error {
	format, err := output.ParseFormat(p.output)
	if err != nil {
		return err
	}
	p.cli.Output = format

	timeout, err := parseTimeout(p.timeout)
	if err != nil {
		return err
	}
	p.cli.Timeout = timeout
	return nil
}

// leaf builds an action command. build runs after flags are parsed.
func (p *parser) leaf(use, short string, build func() (zerocli.Command, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			command, err := build()
			if err != nil {
				return err
			}
			p.cli.Command = command
			return nil
		},
	}
}

// group builds a command that only holds subcommands.
func group(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return fmt.Errorf("%q requires a subcommand", cmd.CommandPath())
		},
	}
	cmd.AddCommand(children...)
	return cmd
}

func required(cmd *cobra.Command, names ...string) *cobra.Command {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// parseTimeout parses timeout string to time.Duration.
// Supports formats: "10m", "30s", "1h", "600" (number of seconds); "0" disables.
func parseTimeout(timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return constants.DefaultCLITimeout, nil
	}

	duration, err := time.ParseDuration(timeoutStr)
	if err == nil {
		if duration < 0 {
			return 0, fmt.Errorf("invalid timeout: %s (must not be negative)", timeoutStr)
		}
		return duration, nil
	}

	seconds, err := strconv.Atoi(timeoutStr)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf(
			"invalid timeout format: %s (use duration like '10m' or '30s', or seconds like '600')", timeoutStr)
	}
	return time.Duration(seconds) * time.Second, nil
}
