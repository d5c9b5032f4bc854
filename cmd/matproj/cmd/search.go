package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/matproj"
)

func newSearchCmd(o *options) *cobra.Command {
	var (
		filters    []string
		fields     []string
		sortFields []string
		ver        string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "search <category>",
		Short: "Search documents with key=value filters",
		Long: `Search a data category. Filters use the API query parameter names:
lists are comma separated and ranges use the _min and _max suffixes.

Examples:
  # Stable silicon compounds
  matproj search summary --filter elements=Si --filter is_stable=true

  # Stiff materials, sorted by bulk modulus
  matproj search elasticity --filter k_vrh_min=150 --sort -bulk_modulus.vrh --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := parseFilters(filters)
			if err != nil {
				return err
			}
			c, r, err := o.rester(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			if len(fields) == 0 && o.output == formatTable {
				fields = defaultFields(r)
			}
			docs, err := r.SearchRaw(cmd.Context(), crit, queryOptions(fields, ver, sortFields, limit)...)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			return printDocs(cmd.OutOrStdout(), o.output, docs, fields)
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as key=value (repeatable)")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "Fields to return")
	cmd.Flags().StringSliceVar(&sortFields, "sort", nil, "Sort fields, prefix with - for descending")
	cmd.Flags().StringVar(&ver, "db-version", "", "Database version, on routes that support it")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of documents (default: all)")
	return cmd
}

func newCountCmd(o *options) *cobra.Command {
	var filters []string
	cmd := &cobra.Command{
		Use:   "count <category>",
		Short: "Count documents matching key=value filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := parseFilters(filters)
			if err != nil {
				return err
			}
			c, r, err := o.rester(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := r.Count(cmd.Context(), crit)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, map[string]int{"count": n})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "Filter as key=value (repeatable)")
	return cmd
}

// defaultFields keeps table output narrow: the primary key plus well-known columns.
func defaultFields(r matproj.GenericRester) []string {
	available := r.AvailableFields()
	var out []string
	if pk := r.PrimaryKey(); pk != "" {
		out = append(out, pk)
	}
	for _, c := range preferredColumns {
		if len(out) >= maxDefaultColumns {
			break
		}
		if slices.Contains(available, c) && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
