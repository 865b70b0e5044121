package main

import (
	"fmt"
	"os"

	"github.com/de-tools/data-pump/pkg/runtime/app"
	"github.com/de-tools/data-pump/pkg/runtime/terminal"
	"github.com/de-tools/data-pump/pkg/services/config"
	"github.com/spf13/cobra"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Backend: backend,
		Output:  os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func backend(cmd *cobra.Command, configPath string) (*terminal.Runtime, error) {
	cfg, err := config.LoadApp(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, err
	}
	return &terminal.Runtime{
		Service: a.Service,
		Logger:  a.Logger,
		Close:   a.Close,
	}, nil
}
