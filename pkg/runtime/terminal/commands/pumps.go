package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewPumpsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "pumps",
		Short: "List registered data pumps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := env.service()
			if err != nil {
				return err
			}
			registry := svc.Engine().Registry()

			names := registry.List()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pumps registered")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range names {
				def, err := registry.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, def.Description)
			}
			return w.Flush()
		},
	}
}

func NewFieldsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <pump>",
		Short: "Show the fields and output columns of a pump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := env.service()
			if err != nil {
				return err
			}
			def, err := svc.Engine().Registry().Lookup(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, f := range def.Schema.Fields() {
				fmt.Fprintf(w, "%s\t%s\n", f.Name, f.DataType())
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if def.Schema.HasOutputOverride() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nOutput columns: %s\n", strings.Join(def.Schema.OutputShape(), ", "))
			}
			return nil
		},
	}
}
