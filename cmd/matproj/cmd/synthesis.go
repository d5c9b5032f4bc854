package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/matproj"
)

func newSynthesisCmd(o *options) *cobra.Command {
	var (
		s        matproj.SynthesisSearch
		minTemp  float64
		maxTemp  float64
		minTime  float64
		maxTime  float64
		limit    int
		showText bool
	)
	cmd := &cobra.Command{
		Use:   "synthesis",
		Short: "Search text-mined synthesis recipes",
		Long: `Search synthesis recipes text-mined from the literature.

Examples:
  # Solid-state recipes for LiFePO4 heated between 600 and 800 C
  matproj synthesis --target LiFePO4 --operation HeatingOperation --min-temp 600 --max-temp 800

  # Free-text search
  matproj synthesis --keywords "ball milled" --show-text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("min-temp") {
				s.MinHeatingTemperature = matproj.Float(minTemp)
			}
			if flags.Changed("max-temp") {
				s.MaxHeatingTemperature = matproj.Float(maxTemp)
			}
			if flags.Changed("min-time") {
				s.MinHeatingTime = matproj.Float(minTime)
			}
			if flags.Changed("max-time") {
				s.MaxHeatingTime = matproj.Float(maxTime)
			}

			c, err := o.client(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			recipes, err := c.Synthesis().Search(cmd.Context(), s, queryOptions(nil, "", nil, limit)...)
			if err != nil {
				return err //nolint:wrapcheck // SDK errors name the operation
			}
			if o.output != formatTable {
				return printValue(cmd.OutOrStdout(), o.output, recipes)
			}

			rows := make([]map[string]any, len(recipes))
			for i, r := range recipes {
				ops := make([]string, len(r.Operations))
				for j, op := range r.Operations {
					ops[j] = op.Type
				}
				rows[i] = map[string]any{
					"doi":        r.DOI,
					"target":     r.Target.MaterialFormula,
					"type":       r.SynthesisType,
					"operations": strings.Join(ops, ","),
					"paragraph":  r.ParagraphString,
				}
			}
			cols := []string{"doi", "target", "type", "operations"}
			if showText {
				cols = append(cols, "paragraph")
			}
			return printDocs(cmd.OutOrStdout(), o.output, rows, cols)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&s.Keywords, "keywords", nil, "Keywords searched in the paragraph text")
	f.StringSliceVar(&s.SynthesisTypes, "type", nil, "Synthesis types, e.g. solid-state, sol-gel")
	f.StringVar(&s.TargetFormula, "target", "", "Target material formula")
	f.StringVar(&s.PrecursorFormula, "precursor", "", "Precursor formula")
	f.StringSliceVar(&s.Operations, "operation", nil, "Operation types, e.g. HeatingOperation")
	f.Float64Var(&minTemp, "min-temp", 0, "Minimum heating temperature in C")
	f.Float64Var(&maxTemp, "max-temp", 100000, "Maximum heating temperature in C")
	f.Float64Var(&minTime, "min-time", 0, "Minimum heating time in h")
	f.Float64Var(&maxTime, "max-time", 100000, "Maximum heating time in h")
	f.StringSliceVar(&s.HeatingAtmosphere, "atmosphere", nil, "Heating atmospheres")
	f.StringSliceVar(&s.MixingDevice, "mixing-device", nil, "Mixing devices")
	f.StringSliceVar(&s.MixingMedia, "mixing-media", nil, "Mixing media")
	f.IntVarP(&limit, "limit", "n", 0, "Maximum number of recipes (default: all)")
	f.BoolVar(&showText, "show-text", false, "Include the paragraph text in table output")
	return cmd
}
