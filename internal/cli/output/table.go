package output

import (
	"bufio"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// DefaultMaxWidth is the widest a cell gets outside wide mode.
const DefaultMaxWidth = 48

// Table is a column-aligned text table.
type Table struct {
	Headers []string
	Rows    [][]string

	// MaxWidth clips longer cells, ending them with "…". 0 disables it.
	MaxWidth int
}

// NewTable returns a table with the given headers. Wide tables never clip.
func NewTable(wide bool, headers ...string) *Table {
	t := &Table{Headers: headers, MaxWidth: DefaultMaxWidth}
	if wide {
		t.MaxWidth = 0
	}
	return t
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SortRows orders rows by their cells, left to right.
func (t *Table) SortRows() {
	slices.SortStableFunc(t.Rows, func(a, b []string) int { return slices.Compare(a, b) })
}

// Render writes the table.
func (t *Table) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)

	if len(t.Headers) > 0 {
		t.writeLine(tw, t.Headers)
	}
	for _, row := range t.Rows {
		t.writeLine(tw, row)
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	return bw.Flush()
}

func (t *Table) writeLine(w io.Writer, cells []string) {
	line := make([]string, len(cells))
	for i, c := range cells {
		line[i] = t.clip(c)
	}
	// Errors surface from Flush.
	_, _ = io.WriteString(w, strings.Join(line, "\t")+"\n")
}

func (t *Table) clip(c string) string {
	c = strings.ReplaceAll(c, "\t", " ")
	if t.MaxWidth <= 0 || utf8.RuneCountInString(c) <= t.MaxWidth {
		return c
	}
	r := []rune(c)
	return string(r[:t.MaxWidth-1]) + "…"
}
