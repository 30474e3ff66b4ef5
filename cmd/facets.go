package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tayloree/agency-catalog/internal/display"
	"github.com/tayloree/agency-catalog/internal/filter"
)

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Count matching projects per category and subcategory",
	Example: `  catalog facets
  catalog facets --query shopify
  catalog facets -c web --json`,
	RunE: runFacets,
}

func init() {
	rootCmd.AddCommand(facetsCmd)
	registerFilterFlags(facetsCmd.Flags())
}

func runFacets(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	sess, release, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer release()

	if err := applyFilterFlags(cmd.Context(), sess); err != nil {
		return err
	}
	// --subcategory already loaded the scope; otherwise load it for names.
	if len(flagSubCategories) == 0 {
		if err := sess.LoadScope(cmd.Context()); err != nil {
			return upstreamError("loading subcategories", err)
		}
	}

	matched := sess.Filtered()
	if len(matched) == 0 {
		return notFoundError(
			"no projects match your filters",
			"Relax filters like --category/--subcategory/--query.",
		)
	}

	counts := filter.Facets(matched)
	if format != display.FormatText {
		return display.Encode(cmd.OutOrStdout(), format, display.FacetRows(sess.Taxonomy(), counts))
	}
	display.PrintFacets(cmd.OutOrStdout(), sess.Taxonomy(), counts, len(matched))
	return nil
}
