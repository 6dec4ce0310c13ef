package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one output column. Cells wider than MaxWidth are cut.
type column struct {
	Header   string
	Align    text.Align
	MaxWidth int
}

func left(header string) column  { return column{Header: header, Align: text.AlignLeft} }
func right(header string) column { return column{Header: header, Align: text.AlignRight} }

var (
	statusColumns = []column{left("Feed"), right("Episodes")}
	ledgerColumns = []column{
		right("ID"), left("Published"), left("Feed"), left("Status"),
		{Header: "Title", Align: text.AlignLeft, MaxWidth: 60},
	}
	summaryColumns = []column{
		left("Feed"), right("New"), right("Faulty"), right("Seen"),
		right("Too old"), right("No media"),
		{Header: "Error", Align: text.AlignLeft, MaxWidth: 50},
	}
)

// renderTable lays rows out under cols. Short rows are padded with blanks.
func renderTable(cols []column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.Header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.Align,
			AlignHeader: text.AlignLeft,
		}
		if c.MaxWidth > 0 {
			configs[i].WidthMax = c.MaxWidth
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}
