package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/roach88/benchy/internal/diagram"
)

var (
	titleStyle  = color.New(color.Bold)
	headerStyle = color.New(color.FgCyan, color.Bold)
	axisStyle   = color.New(color.FgYellow)
)

// Table writes d as an aligned text table headed by "Title (RangeLabel)".
// Colours follow color.NoColor.
func Table(w io.Writer, d *diagram.Diagram) error {
	g, err := layout(d)
	if err != nil {
		return err
	}

	widths := make([]int, len(g.header))
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(display(c)))
		}
	}
	measure(g.header)
	for _, row := range g.rows {
		measure(row)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Sprintf("%s (%s)", d.Title(), d.RangeLabel()))
	b.WriteByte('\n')

	writeLine(&b, g.header, widths, func(int) *color.Color { return headerStyle })

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}
	writeLine(&b, rule, widths, nil)

	for _, row := range g.rows {
		writeLine(&b, row, widths, func(i int) *color.Color {
			if i == 0 && len(row) > 1 {
				return axisStyle
			}
			return nil
		})
	}

	_, err = io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// writeLine pads every cell but the last, so lines carry no trailing blanks.
func writeLine(b *strings.Builder, cells []string, widths []int, style func(int) *color.Color) {
	for i, c := range cells {
		text := display(c)
		if i < len(cells)-1 {
			text += strings.Repeat(" ", widths[i]-utf8.RuneCountInString(text))
		}
		if style != nil {
			if s := style(i); s != nil {
				text = s.Sprint(text)
			}
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(text)
	}
	b.WriteByte('\n')
}

func display(cell string) string {
	if cell == "" {
		return Empty
	}
	return cell
}
