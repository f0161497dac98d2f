package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

var (
	// Out and Err receive all output.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	InfoColor      = lipgloss.Color("#00D9FF")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// nullColor marks NULL cells in row tables.
var nullColor = color.New(color.FgHiBlack, color.Italic)

// PrintHeader prints a boxed title
func PrintHeader(title string, subtitle string) {
	width := 80
	if w := pterm.GetTerminalWidth(); w > 0 {
		width = w
	}

	header := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 2).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Center,
				TitleStyle.Render(title),
				SecondaryStyle.Render(subtitle),
			),
		)

	fmt.Fprintln(Out, header)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+message))
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(Err, ErrorStyle.Render("✗ "+message))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(Out, WarningStyle.Render("⚠ "+message))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintln(Out, InfoStyle.Render("ℹ "+message))
}

// PrintResult prints a success message when ok, otherwise an info message
// explaining that nothing changed.
func PrintResult(ok bool, done string, unchanged string) {
	if ok {
		PrintSuccess("%s", done)
		return
	}
	PrintInfo("%s", unchanged)
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	tableData := pterm.TableData{headers}
	tableData = append(tableData, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(tableData).WithWriter(Out).Render()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  • %s\n", item)
	}
}

// PrintRows prints rows as a table with the columns in sorted order.
func PrintRows(rows []types.Row) error {
	if len(rows) == 0 {
		PrintInfo("no rows")
		return nil
	}
	headers, cells := RowCells(rows)
	return PrintTable(headers, cells)
}

// RowCells flattens rows into table cells. Columns are the union of every
// row's columns, sorted.
func RowCells(rows []types.Row) ([]string, [][]string) {
	seen := map[string]struct{}{}
	var headers []string
	for _, r := range rows {
		for col := range r {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				headers = append(headers, col)
			}
		}
	}
	sort.Strings(headers)

	cells := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, len(headers))
		for j, col := range headers {
			v, ok := r[col]
			switch {
			case !ok:
				line[j] = ""
			case v == nil:
				line[j] = nullColor.Sprint("NULL")
			default:
				line[j] = fmt.Sprint(v)
			}
		}
		cells[i] = line
	}
	return headers, cells
}

// ColumnsMarkdown renders a column listing as a markdown document.
func ColumnsMarkdown(table string, cols []types.ColumnInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", table)
	if len(cols) == 0 {
		b.WriteString("_no columns_\n")
		return b.String()
	}
	b.WriteString("| Column | Type | Nullable | Comment |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range cols {
		nullable := "no"
		if c.Nullable {
			nullable = "yes"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
			escapeCell(c.Name), escapeCell(c.Type), nullable, escapeCell(c.Comment))
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ", "`", "'").Replace(s)
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(Out, out)
	return nil
}

// PrintSpinner creates a spinner and returns it. Spinners only run on
// standard output; otherwise it returns nil.
func PrintSpinner(message string) (*pterm.SpinnerPrinter, error) {
	if Out != io.Writer(os.Stdout) {
		return nil, nil
	}
	return pterm.DefaultSpinner.WithWriter(Out).Start(message)
}

// ErrAborted is returned when the user declines a confirmation.
var ErrAborted = errors.New("aborted")

// Confirm asks a yes/no question, defaulting to no. An interrupt counts as no.
func Confirm(message string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &ok); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
