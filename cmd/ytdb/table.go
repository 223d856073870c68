package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableSpec describes one rendered table. Rows shorter than headers are
// padded; footer is optional.
type tableSpec struct {
	title   string
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	footer  []string
}

func (s tableSpec) row(values []string) table.Row {
	r := make(table.Row, len(s.headers))
	for i := range r {
		if i < len(values) {
			r[i] = values[i]
		} else {
			r[i] = ""
		}
	}
	return r
}

func renderTable(ts tableSpec) string {
	if len(ts.headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignLeft
	if ts.title != "" {
		tw.SetTitle(ts.title)
	}

	tw.AppendHeader(ts.row(ts.headers))
	for _, values := range ts.rows {
		tw.AppendRow(ts.row(values))
	}
	if len(ts.footer) > 0 {
		tw.AppendFooter(ts.row(ts.footer))
	}

	configs := make([]table.ColumnConfig, len(ts.headers))
	for i := range configs {
		align := text.AlignLeft
		if i < len(ts.aligns) && ts.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
