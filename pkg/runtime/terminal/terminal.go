package terminal

import (
	"io"
	"os"

	"github.com/de-tools/data-pump/pkg/runtime/terminal/commands"
	"github.com/de-tools/data-pump/pkg/runtime/terminal/export"
	"github.com/de-tools/data-pump/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Runtime is what the CLI needs once configuration has been loaded.
type Runtime struct {
	Service *report.Service
	Logger  zerolog.Logger
	Close   func() error
}

// Backend builds the runtime from the --config flag value.
type Backend func(cmd *cobra.Command, configPath string) (*Runtime, error)

// CLI represents the command-line interface
type CLI struct {
	backend    Backend
	configPath string
	runtime    *Runtime
	env        *commands.Env
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Backend Backend
	Output  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		backend: opts.Backend,
		env:     &commands.Env{Reporter: export.NewReporter(opts.Output)},
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides os.Args, for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "datapump",
		Short:             "Configurable reports over pluggable data pumps",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if cli.runtime != nil && cli.runtime.Close != nil {
				return cli.runtime.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "",
		"Path to the application config file (defaults and DATAPUMP_* variables otherwise)")

	cmd.AddCommand(commands.NewPumpsCmd(cli.env))
	cmd.AddCommand(commands.NewFieldsCmd(cli.env))
	cmd.AddCommand(commands.NewSaveCmd(cli.env))
	cmd.AddCommand(commands.NewListCmd(cli.env))
	cmd.AddCommand(commands.NewShowCmd(cli.env))
	cmd.AddCommand(commands.NewDeleteCmd(cli.env))
	cmd.AddCommand(commands.NewRunCmd(cli.env))
	cmd.AddCommand(commands.NewDemoCmd(cli.env))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	rt, err := cli.backend(cmd, cli.configPath)
	if err != nil {
		return err
	}
	cli.runtime = rt
	cli.env.Service = rt.Service
	cmd.SetContext(rt.Logger.WithContext(cmd.Context()))
	return nil
}
