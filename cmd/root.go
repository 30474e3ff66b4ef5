package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tayloree/agency-catalog/internal/api"
	"github.com/tayloree/agency-catalog/internal/browse"
	"github.com/tayloree/agency-catalog/internal/cache"
	"github.com/tayloree/agency-catalog/internal/config"
	"github.com/tayloree/agency-catalog/internal/display"
	"github.com/tayloree/agency-catalog/internal/filter"
	"github.com/tayloree/agency-catalog/internal/logging"
)

var (
	flagCategories    []string
	flagSubCategories []string
	flagQuery         string
	flagLimit         int
	flagJSON          bool
	flagFormat        string
	flagConfig        string
	flagLogLevel      string
	flagBaseURL       string
	flagNoCache       bool
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and filter the agency's service and project catalog",
	Long: "CLI tool that loads the agency catalog (categories, subcategories and projects)\n" +
		"and filters it by category, subcategory and free-text search.\n\n" +
		"Agent-friendly mode: minor syntax issues are auto-corrected when intent is clear " +
		"(for example: -category web, cat=web, --catgory web).",
	Example: `  catalog --category web-development
  catalog -c web -c cloud --query shopify
  catalog -c web -s react --limit 5
  catalog categories
  catalog subcategories --category web --json
  catalog facets --query headless
  catalog tui`,
	RunE: runList,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "Output as JSON")
	pf.StringVar(&flagFormat, "format", "", "Output format: text, json, or yaml")
	pf.StringVar(&flagConfig, "config", "", "Config file (default is $HOME/.agency-catalog.yaml)")
	pf.StringVarP(&flagLogLevel, "loglevel", "l", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flagBaseURL, "base-url", "", "Catalog API base URL")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Bypass the local response cache")

	registerFilterFlags(rootCmd.Flags())
}

// Execute runs the root command.
func Execute() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	resetCLIState()
	logging.Log.SetOutput(stderr)

	normalizedArgs, notes := normalizeCLIArgs(args)
	for _, note := range notes {
		fmt.Fprintf(stderr, "note: %s\n", note)
	}

	if len(normalizedArgs) == 0 {
		if err := printQuickStart(stdout, !isTTY(stdout)); err != nil {
			cliErr := classifyCLIError(err)
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
			return cliErr.ExitCode
		}
		return ExitSuccess
	}

	if shouldAutoJSON(normalizedArgs, isTTY(stdout)) {
		normalizedArgs = append(normalizedArgs, "--json")
	}

	setCommandIO(rootCmd, stdout, stderr)
	rootCmd.SetArgs(normalizedArgs)

	if err := rootCmd.Execute(); err != nil {
		cliErr := classifyCLIError(err)
		if hasJSONPreference(normalizedArgs) {
			if jerr := printCLIErrorJSON(stderr, cliErr); jerr != nil {
				fmt.Fprintln(stderr, formatCLIErrorText(classifyCLIError(jerr)))
				return ExitInternal
			}
		} else {
			fmt.Fprintln(stderr, formatCLIErrorText(cliErr))
		}
		return cliErr.ExitCode
	}
	return ExitSuccess
}

func setCommandIO(cmd *cobra.Command, stdout, stderr io.Writer) {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	for _, child := range cmd.Commands() {
		setCommandIO(child, stdout, stderr)
	}
}

func resetCLIState() {
	flagCategories = nil
	flagSubCategories = nil
	flagQuery = ""
	flagLimit = 0
	flagJSON = false
	flagFormat = ""
	flagConfig = ""
	flagLogLevel = ""
	flagBaseURL = ""
	flagNoCache = false
	resetFlagSet(rootCmd)
}

// resetFlagSet restores defaults and clears the Changed marks pflag keeps
// between runs so that repeated in-process invocations do not see each
// other's flags. Array flags are reset through their variables.
func resetFlagSet(cmd *cobra.Command) {
	visit := func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "stringArray", "stringSlice":
		default:
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(visit)
	cmd.PersistentFlags().VisitAll(visit)
	for _, child := range cmd.Commands() {
		resetFlagSet(child)
	}
}

func registerFilterFlags(f *pflag.FlagSet) {
	f.StringArrayVarP(&flagCategories, "category", "c", nil, "Filter by category id, slug or name (repeat for multi-select)")
	f.StringArrayVarP(&flagSubCategories, "subcategory", "s", nil, "Filter by subcategory id or name (repeat for multi-select)")
	f.StringVarP(&flagQuery, "query", "q", "", "Search projects by keyword in title, description or tags")
	f.IntVarP(&flagLimit, "limit", "n", 0, "Limit number of results (0 = all)")
}

// loadConfig reads the config file and environment, then applies flag
// overrides and the log level.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.New(flagConfig)
	if err != nil {
		return config.Config{}, configError(err)
	}
	if f := cmd.Flags().Lookup("base-url"); f != nil {
		_ = v.BindPFlag("api.base_url", f)
	}
	if f := cmd.Flags().Lookup("loglevel"); f != nil {
		_ = v.BindPFlag("log.level", f)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, configError(err)
	}
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return config.Config{}, invalidArgsError(err.Error(), "catalog --loglevel debug")
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	return cfg, nil
}

// openSession builds the provider chain (HTTP client, optionally behind the
// SQLite cache) and a browse session on top of it. The returned func
// releases the cache.
func openSession(cmd *cobra.Command) (*browse.Session, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	client := api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Retries: cfg.API.Retries,
		Logger:  logging.Log,
	})

	var provider api.Provider = client
	release := func() {}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			logging.Log.WithError(err).Warn("response cache unavailable, continuing without it")
		} else {
			provider = cache.NewProvider(client, client.BaseURL(), store, cfg.Cache.TTL, logging.Log)
			release = func() { _ = store.Close() }
		}
	}

	sess := browse.New(provider, browse.Options{
		PageSize: cfg.Catalog.PageSize,
		Logger:   logging.Log,
	})
	return sess, release, nil
}

// loadSession opens a session and loads the catalog into it.
func loadSession(cmd *cobra.Command) (*browse.Session, func(), error) {
	sess, release, err := openSession(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.Load(cmd.Context()); err != nil {
		release()
		return nil, nil, upstreamError("loading catalog", err)
	}
	return sess, release, nil
}

// applyFilterFlags replays --category, --subcategory and --query onto the
// session's filter state. The first category is applied as a navigation, so
// a category given on the command line behaves like opening its page.
func applyFilterFlags(ctx context.Context, sess *browse.Session) error {
	st := sess.State()
	if len(flagSubCategories) > 1 {
		st.SetSubCategoryMultiSelect(true)
	}

	for i, raw := range flagCategories {
		if strings.EqualFold(strings.TrimSpace(raw), filter.AllCategories) {
			st.SelectCategory(filter.AllCategories)
			continue
		}
		c, ok := sess.ResolveCategoryArg(raw)
		if !ok {
			return notFoundError(
				fmt.Sprintf("unknown category %q", raw),
				"Run `catalog categories` to list categories.",
			)
		}
		if i == 0 {
			st.Navigate(c.ID)
			continue
		}
		if !st.CategoryMultiSelect() {
			st.SetCategoryMultiSelect(true)
		}
		if !st.HasCategory(c.ID) {
			st.SelectCategory(c.ID)
		}
	}

	if len(flagSubCategories) > 0 {
		if err := sess.LoadScope(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return upstreamError("loading subcategories", err)
		}
		for _, raw := range flagSubCategories {
			sub, ok := sess.ResolveSubCategoryArg(raw)
			if !ok {
				return notFoundError(
					fmt.Sprintf("unknown subcategory %q for the selected categories", raw),
					"Run `catalog subcategories --category NAME` to list subcategories.",
				)
			}
			if !st.HasSubCategory(sub.ID) {
				st.SelectSubCategory(sub.ID)
			}
		}
	}

	st.SetQuery(flagQuery)
	return nil
}

// outputFormat resolves --json and --format into one format.
func outputFormat() (display.Format, error) {
	if flagJSON {
		return display.FormatJSON, nil
	}
	f, err := display.ParseFormat(flagFormat)
	if err != nil {
		return "", invalidArgsError(
			"invalid value for --format (use text, json, or yaml)",
			"catalog --format yaml",
			"catalog --json",
		)
	}
	return f, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	sess, release, err := loadSession(cmd)
	if err != nil {
		return err
	}
	defer release()

	if len(sess.Items()) == 0 {
		return notFoundError(
			"no projects found in the catalog",
			"Check api.base_url in your config.",
		)
	}

	if err := applyFilterFlags(cmd.Context(), sess); err != nil {
		return err
	}

	view := sess.View(flagLimit)
	if view.Total == 0 {
		return notFoundError(
			"no projects match your filters",
			"Relax filters like --category/--subcategory/--query.",
		)
	}

	out := cmd.OutOrStdout()
	switch format {
	case display.FormatJSON:
		return display.PrintItemsJSON(out, view, sess.Taxonomy())
	case display.FormatYAML:
		return display.PrintItemsYAML(out, view, sess.Taxonomy())
	}
	display.PrintItems(out, view, sess.Taxonomy())
	return nil
}
