package main

import (
	"fmt"
	"os"

	"github.com/de-tools/data-pump/pkg/runtime/app"
	"github.com/de-tools/data-pump/pkg/server"
	"github.com/de-tools/data-pump/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the web server for Data Pump",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the application config file (defaults and DATAPUMP_* variables otherwise)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.LoadApp(cfgPath)
	if err != nil {
		return err
	}
	logger, err := app.NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release resources")
		}
	}()

	logger.Info().
		Strs("pumps", a.Service.Engine().Registry().List()).
		Str("store", cfg.Store.Path).
		Msg("configuration loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Service: a.Service,
			Logger:  logger,
		},
	})
	return api.Start()
}
