package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitwire/pkg/api"
)

func newSchemasCmd() *cobra.Command {
	schemasCmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the payload schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := container.Registry()

			var schemas []api.SchemaInfo
			for _, name := range registry.Names() {
				schema, _ := registry.Lookup(name)
				schemas = append(schemas, api.SchemaInfo{Name: name, Description: schema.Description()})
			}

			if format, _ := cmd.Flags().GetString("format"); format == "json" {
				return writeJSON(cmd.OutOrStdout(), schemas, false)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, s := range schemas {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
			return nil
		},
	}

	schemasCmd.Flags().StringP("format", "f", "table", "Output format: table or json")
	return schemasCmd
}
