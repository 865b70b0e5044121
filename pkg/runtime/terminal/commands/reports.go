package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/de-tools/data-pump/pkg/adapters"
	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type SaveCmd struct {
	file string
	id   string
	env  *Env
}

func NewSaveCmd(env *Env) *cobra.Command {
	sc := &SaveCmd{env: env}
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Store a report definition from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}

	cmd.Flags().StringVarP(&sc.file, "file", "f", "", "Path to the report definition")
	cmd.Flags().StringVar(&sc.id, "id", "", "Replace the stored report with this id")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (sc *SaveCmd) run(cmd *cobra.Command, _ []string) error {
	svc, err := sc.env.service()
	if err != nil {
		return err
	}

	def, err := LoadDefinition(sc.file)
	if err != nil {
		return err
	}
	if sc.id != "" {
		def.ID = sc.id
	}

	cfg, err := adapters.MapReportConfigApiToDomain(*def)
	if err != nil {
		return fmt.Errorf("invalid report definition: %w", err)
	}
	id, err := svc.Save(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// LoadDefinition reads a report definition file in any format viper understands.
func LoadDefinition(path string) (*api.ReportConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read report definition: %w", err)
	}

	var def api.ReportConfig
	if err := v.Unmarshal(&def); err != nil {
		return nil, fmt.Errorf("failed to parse report definition: %w", err)
	}
	return &def, nil
}

func NewListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := env.service()
			if err != nil {
				return err
			}
			configs, err := svc.Store().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports stored")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPUMP")
			for _, c := range configs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Pump)
			}
			return w.Flush()
		},
	}
}

func NewShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored report definition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := env.service()
			if err != nil {
				return err
			}
			cfg, err := svc.Store().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			def, err := adapters.MapReportConfigDomainToApi(*cfg)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(def)
		},
	}
}

func NewDeleteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := env.service()
			if err != nil {
				return err
			}
			return svc.Store().Delete(cmd.Context(), args[0])
		},
	}
}

type RunCmd struct {
	params []string
	output string
	env    *Env
}

func NewRunCmd(env *Env) *cobra.Command {
	rc := &RunCmd{env: env}
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a stored report",
		Args:  cobra.ExactArgs(1),
		RunE:  rc.run,
	}

	cmd.Flags().StringArrayVarP(&rc.params, "param", "p", nil, "Parameter value as name=value (repeatable)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", string(export.FormatTable), "Output format: table or json")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, args []string) error {
	svc, err := rc.env.service()
	if err != nil {
		return err
	}
	params, err := ParseParams(rc.params)
	if err != nil {
		return err
	}
	if err := rc.env.Reporter.SetFormat(export.Format(rc.output)); err != nil {
		return err
	}

	cfg, err := svc.Store().Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	table, err := svc.RunStored(cmd.Context(), args[0], params)
	if err != nil {
		return err
	}
	return rc.env.Reporter.Handle(cfg.Name, table)
}

// ParseParams reads name=value pairs. Values stay text until they are
// coerced to the declared parameter type.
func ParseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		params[strings.TrimSpace(name)] = value
	}
	return params, nil
}
