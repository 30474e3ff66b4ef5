package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tayloree/agency-catalog/internal/display"
	"github.com/tayloree/agency-catalog/internal/filter"
)

var subcategoriesCmd = &cobra.Command{
	Use:   "subcategories",
	Short: "List the subcategories of one or more categories",
	Example: `  catalog subcategories --category web
  catalog subcategories -c web -c cloud --json`,
	RunE: runSubCategories,
}

func init() {
	rootCmd.AddCommand(subcategoriesCmd)
	subcategoriesCmd.Flags().StringArrayVarP(&flagCategories, "category", "c", nil, "Category id, slug or name (repeat for several)")
	_ = subcategoriesCmd.MarkFlagRequired("category")
}

func runSubCategories(cmd *cobra.Command, _ []string) error {
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
	if err := sess.LoadScope(cmd.Context()); err != nil {
		return upstreamError("loading subcategories", err)
	}

	scope := filter.Scope(sess.Taxonomy(), sess.State())
	counts := filter.Facets(sess.Items())
	if format != display.FormatText {
		return display.Encode(cmd.OutOrStdout(), format, display.SubCategoryList(scope, counts))
	}
	display.PrintSubCategories(cmd.OutOrStdout(), sess.Taxonomy(), scope, counts)
	return nil
}
