package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tayloree/agency-catalog/internal/display"
	"github.com/tayloree/agency-catalog/internal/filter"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their subcategories and project counts",
	Example: `  catalog categories
  catalog categories --format yaml
  catalog categories --json`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	sess, release, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer release()

	if len(sess.Taxonomy().Categories()) == 0 {
		return notFoundError(
			"no categories found in the catalog",
			"Check api.base_url in your config.",
		)
	}

	// No category is selected, so this loads every subcategory at once.
	if err := sess.LoadScope(cmd.Context()); err != nil {
		return upstreamError("loading subcategories", err)
	}

	counts := filter.Facets(sess.Items())
	if format != display.FormatText {
		return display.Encode(cmd.OutOrStdout(), format, display.Tree(sess.Taxonomy(), counts))
	}
	display.PrintCategories(cmd.OutOrStdout(), sess.Taxonomy(), counts)
	return nil
}
