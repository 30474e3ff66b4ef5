package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tayloree/agency-catalog/internal/api"
	"golang.org/x/term"
)

const (
	// ExitSuccess is returned when the command succeeds.
	ExitSuccess = 0
	// ExitNotFound is returned when the requested categories or projects are not available.
	ExitNotFound = 1
	// ExitInvalidArgs is returned when the command input is invalid.
	ExitInvalidArgs = 2
	// ExitUpstream is returned when an external dependency fails.
	ExitUpstream = 3
	// ExitInternal is returned for unexpected internal failures.
	ExitInternal = 4
)

type cliError struct {
	Code        string
	Message     string
	Suggestions []string
	ExitCode    int
}

func (e *cliError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidArgsError(message string, suggestions ...string) error {
	return &cliError{
		Code:        "INVALID_ARGS",
		Message:     message,
		Suggestions: suggestions,
		ExitCode:    ExitInvalidArgs,
	}
}

func notFoundError(message string, suggestions ...string) error {
	return &cliError{
		Code:        "NOT_FOUND",
		Message:     message,
		Suggestions: suggestions,
		ExitCode:    ExitNotFound,
	}
}

func configError(err error) error {
	return &cliError{
		Code:        "INVALID_ARGS",
		Message:     err.Error(),
		Suggestions: []string{"Check $HOME/.agency-catalog.yaml or the CATALOG_* environment variables."},
		ExitCode:    ExitInvalidArgs,
	}
}

func upstreamError(action string, err error) error {
	return &cliError{
		Code:        "UPSTREAM_ERROR",
		Message:     fmt.Sprintf("%s: %v", action, err),
		Suggestions: []string{"Retry in a moment."},
		ExitCode:    ExitUpstream,
	}
}

type jsonErrorPayload struct {
	Error jsonErrorBody `json:"error"`
}

type jsonErrorBody struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	ExitCode    int      `json:"exitCode"`
}

func printCLIErrorJSON(w io.Writer, err *cliError) error {
	if err == nil {
		return nil
	}
	payload := jsonErrorPayload{
		Error: jsonErrorBody{
			Code:        err.Code,
			Message:     err.Message,
			Suggestions: err.Suggestions,
			ExitCode:    err.ExitCode,
		},
	}
	return json.NewEncoder(w).Encode(payload)
}

func formatCLIErrorText(err *cliError) string {
	if err == nil {
		return ""
	}

	lines := []string{
		fmt.Sprintf("error[%s]: %s", strings.ToLower(err.Code), err.Message),
	}
	if len(err.Suggestions) > 0 {
		lines = append(lines, "suggestions:")
		for _, suggestion := range err.Suggestions {
			lines = append(lines, "  "+suggestion)
		}
	}
	return strings.Join(lines, "\n")
}

func classifyCLIError(err error) *cliError {
	if err == nil {
		return nil
	}

	var typed *cliError
	if errors.As(err, &typed) {
		return typed
	}

	msg := strings.TrimSpace(err.Error())
	lowerMsg := strings.ToLower(msg)

	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return &cliError{
			Code:        "UPSTREAM_ERROR",
			Message:     msg,
			Suggestions: []string{"Retry in a moment."},
			ExitCode:    ExitUpstream,
		}
	}

	switch {
	case strings.Contains(msg, "unknown command"):
		suggestions := []string{
			"catalog categories",
			"catalog subcategories --category web",
		}
		if bad := extractUnknownValue(msg, "unknown command"); bad != "" {
			if suggestion, ok := closestMatch(strings.ToLower(bad), knownCommands, 2); ok {
				suggestions = append([]string{fmt.Sprintf("Did you mean `%s`?", suggestion)}, suggestions...)
			}
		}
		return &cliError{
			Code:        "INVALID_ARGS",
			Message:     msg,
			Suggestions: suggestions,
			ExitCode:    ExitInvalidArgs,
		}
	case strings.Contains(msg, "unknown flag"),
		strings.Contains(msg, "unknown shorthand flag"):
		suggestions := []string{
			"catalog --category web",
			"catalog --query shopify --limit 5",
		}
		if bad := extractUnknownValue(msg, "unknown flag"); bad != "" {
			trimmed := strings.TrimLeft(bad, "-")
			if suggestion, ok := resolveFlagName(trimmed); ok {
				suggestions = append([]string{fmt.Sprintf("Try `--%s`.", suggestion)}, suggestions...)
			}
		}
		return &cliError{
			Code:        "INVALID_ARGS",
			Message:     msg,
			Suggestions: suggestions,
			ExitCode:    ExitInvalidArgs,
		}
	case strings.Contains(msg, "flag needs an argument"),
		strings.Contains(msg, "required flag(s)"),
		strings.Contains(msg, "invalid argument"):
		return &cliError{
			Code:        "INVALID_ARGS",
			Message:     msg,
			Suggestions: []string{"catalog --category web", "catalog subcategories --category web"},
			ExitCode:    ExitInvalidArgs,
		}
	case strings.Contains(lowerMsg, "invalid config"),
		strings.Contains(lowerMsg, "reading config"):
		return configError(err).(*cliError)
	case strings.Contains(lowerMsg, "unknown category"),
		strings.Contains(lowerMsg, "unknown subcategory"),
		strings.Contains(lowerMsg, "no projects found"),
		strings.Contains(lowerMsg, "no projects match"):
		return &cliError{
			Code:     "NOT_FOUND",
			Message:  msg,
			ExitCode: ExitNotFound,
		}
	case strings.Contains(lowerMsg, "unexpected status"),
		strings.Contains(lowerMsg, "executing request"),
		strings.Contains(lowerMsg, "loading catalog"),
		strings.Contains(lowerMsg, "loading categories"),
		strings.Contains(lowerMsg, "loading projects"),
		strings.Contains(lowerMsg, "loading subcategories"):
		return &cliError{
			Code:        "UPSTREAM_ERROR",
			Message:     msg,
			Suggestions: []string{"Retry in a moment."},
			ExitCode:    ExitUpstream,
		}
	default:
		return &cliError{
			Code:        "INTERNAL_ERROR",
			Message:     msg,
			Suggestions: []string{"Run `catalog --help` for usage details."},
			ExitCode:    ExitInternal,
		}
	}
}

func isTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func hasJSONPreference(args []string) bool {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--json" || strings.HasPrefix(arg, "--json=") {
			return true
		}
		if arg == "--format=json" || (arg == "--format" && i+1 < len(args) && strings.EqualFold(args[i+1], "json")) {
			return true
		}
	}
	return false
}

func hasFormatFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--format" || strings.HasPrefix(arg, "--format=") {
			return true
		}
	}
	return false
}

func hasHelpRequest(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
	}
	return false
}

func shouldAutoJSON(args []string, stdoutIsTTY bool) bool {
	if stdoutIsTTY || len(args) == 0 {
		return false
	}
	if hasJSONPreference(args) || hasFormatFlag(args) || hasHelpRequest(args) {
		return false
	}
	switch firstCommand(args) {
	case "completion", "help", "tui":
		return false
	default:
		return true
	}
}

// knownShorthands maps single-character shorthands to whether they require a value.
var knownShorthands = map[byte]bool{
	'c': true, // --category
	's': true, // --subcategory
	'q': true, // --query
	'n': true, // --limit
	'l': true, // --loglevel
}

func firstCommand(args []string) string {
	expectingValue := false
	for _, arg := range args {
		if expectingValue {
			expectingValue = false
			continue
		}
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
		if strings.HasPrefix(arg, "--") {
			name, rest := splitFlag(strings.TrimPrefix(arg, "--"))
			if spec, ok := knownFlags[name]; ok && spec.requiresValue && rest == "" {
				expectingValue = true
			}
		} else if len(arg) == 2 && arg[0] == '-' {
			// Single-char shorthand like -c, -s, -n
			if needsVal, ok := knownShorthands[arg[1]]; ok && needsVal {
				expectingValue = true
			}
		}
	}
	return ""
}

type quickStartJSON struct {
	Name     string   `json:"name"`
	Usage    string   `json:"usage"`
	Examples []string `json:"examples"`
}

func printQuickStart(w io.Writer, asJSON bool) error {
	help := quickStartJSON{
		Name:  "catalog",
		Usage: "catalog [flags] | [categories|subcategories|facets|tui|cache] [flags]",
		Examples: []string{
			"catalog --category web --limit 10",
			"catalog categories",
			"catalog subcategories --category web",
		},
	}

	if asJSON {
		return json.NewEncoder(w).Encode(help)
	}

	_, err := fmt.Fprintf(
		w,
		"%s\nusage: %s\nexamples:\n  %s\n  %s\n  %s\nflags: --category --subcategory --query --limit --json --format --config --loglevel\n",
		help.Name,
		help.Usage,
		help.Examples[0],
		help.Examples[1],
		help.Examples[2],
	)
	return err
}
