package output

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/shared/logging"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	why     lipgloss.Style
	fix     lipgloss.Style
	dim     lipgloss.Style
	header  lipgloss.Style
	key     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		why:     r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		fix:     r.NewStyle().Foreground(lipgloss.Color("#22D3EE")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		header:  r.NewStyle().Bold(true),
		key:     r.NewStyle().Foreground(lipgloss.Color("#10B981")),
	}
}

type interactive struct {
	out    io.Writer
	errOut io.Writer
	logger *logging.Logger
	st     styles
	errSt  styles
}

func newInteractive(stdout, stderr io.Writer, logger *logging.Logger) *interactive {
	return &interactive{
		out:    stdout,
		errOut: stderr,
		logger: logger,
		st:     newStyles(lipgloss.NewRenderer(stdout)),
		errSt:  newStyles(lipgloss.NewRenderer(stderr)),
	}
}

func (o *interactive) Mode() Mode { return Interactive }

// line writes styled to w and keeps the plain text in the crash history.
// Write failures are ignored.
func (o *interactive) line(w io.Writer, plain, styled string) {
	o.logger.Note(plain)
	_, _ = fmt.Fprintln(w, styled)
}

func (o *interactive) Success(value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		o.line(o.out, "✓ "+v, o.st.success.Render("✓")+" "+v)
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			text := fmt.Sprintf("%v", v)
			o.line(o.out, text, text)
			return
		}
		o.line(o.out, string(raw), string(raw))
	}
}

func (o *interactive) Error(err error, code apperrors.ErrorCode) {
	env := BuildError(err, code)
	d := env.Error
	st := o.errSt

	o.line(o.errOut, "Error: "+d.Message, st.err.Render("Error:")+" "+d.Message)
	if d.Context != "" {
		o.line(o.errOut, "  "+d.Context, "  "+st.dim.Render(d.Context))
	}
	if d.Why != "" && d.Why != d.Message {
		o.line(o.errOut, "  Why: "+d.Why, "  "+st.why.Render("Why:")+" "+d.Why)
	}
	if d.Suggestion != "" {
		o.line(o.errOut, "  Fix: "+d.Suggestion, "  "+st.fix.Render("Fix:")+" "+d.Suggestion)
	}
}

func (o *interactive) Progress(msg string) {
	o.line(o.out, msg, msg)
}

// Table prints rows under header with every column as wide as its widest
// cell. Empty cells show as "-".
func (o *interactive) Table(title string, header []string, rows [][]string) {
	if title != "" {
		o.line(o.out, title, o.st.title.Render(title))
	}
	if len(header) == 0 {
		return
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(header))
		for i := range header {
			cell := "-"
			if i < len(row) && row[i] != "" {
				cell = row[i]
			}
			cells[r][i] = cell
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * (len(widths) - 1)
	rule := strings.Repeat("─", total)

	o.renderRow(header, widths, func(_ int, s string) string { return o.st.header.Render(s) })
	o.line(o.out, rule, o.st.dim.Render(rule))
	for _, row := range cells {
		o.renderRow(row, widths, func(i int, s string) string {
			if i == 0 {
				return o.st.key.Render(s)
			}
			return s
		})
	}
}

func (o *interactive) renderRow(cells []string, widths []int, style func(int, string) string) {
	plain := make([]string, len(cells))
	styled := make([]string, len(cells))
	for i, cell := range cells {
		pad := ""
		if i < len(cells)-1 {
			pad = strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
		}
		plain[i] = cell + pad
		styled[i] = style(i, cell) + pad
	}
	o.line(o.out, strings.Join(plain, "  "), strings.Join(styled, "  "))
}
