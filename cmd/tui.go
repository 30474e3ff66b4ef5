package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tayloree/agency-catalog/internal/browse"
	"github.com/tayloree/agency-catalog/internal/display"
	"golang.org/x/term"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the catalog interactively in the terminal",
	Example: `  catalog tui
  catalog tui --category web --query shopify`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	registerFilterFlags(tuiCmd.Flags())
}

func runTUI(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	if format == display.FormatText && !isInteractiveSession(cmd.InOrStdin(), cmd.OutOrStdout()) {
		return invalidArgsError(
			"`catalog tui` requires an interactive terminal",
			"Use `catalog --category web --json` in pipelines.",
		)
	}

	if format != display.FormatText {
		return runList(cmd, nil)
	}

	sess, release, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer release()

	model := newLoadingCatalogTUIModel(tuiLoadConfig{
		ctx:     cmd.Context(),
		session: sess,
		prepare: func(ctx context.Context, s *browse.Session) error {
			return applyFilterFlags(ctx, s)
		},
	})
	if flagLimit > 0 {
		model.window = flagLimit
	}

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(catalogTUIModel); ok && m.fatalErr != nil {
		var typed *cliError
		if errors.As(m.fatalErr, &typed) {
			return typed
		}
		return upstreamError("loading catalog", m.fatalErr)
	}
	return nil
}

func isInteractiveSession(stdin io.Reader, stdout io.Writer) bool {
	inputFile, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	if !term.IsTerminal(int(inputFile.Fd())) {
		return false
	}
	return isTTY(stdout)
}
