package cmd

import (
	"github.com/spf13/cobra"
)

func newGetCmd(o *options) *cobra.Command {
	var (
		fields []string
		ver    string
	)
	cmd := &cobra.Command{
		Use:   "get <category> <id>",
		Short: "Fetch one document by identifier",
		Long: `Fetch one document of a data category by its identifier.

Examples:
  # Full materials document
  matproj get materials mp-149

  # Only a few thermo fields from an older database version
  matproj get thermo mp-19770 --fields material_id,energy_above_hull --db-version 2024.12.18`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, r, err := o.rester(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			doc, err := r.GetRaw(cmd.Context(), args[1], queryOptions(fields, ver, nil, 0)...)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			return printDoc(cmd.OutOrStdout(), o.output, doc)
		},
	}
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "Fields to return (default: all)")
	cmd.Flags().StringVar(&ver, "db-version", "", "Database version, on routes that support it")
	return cmd
}
