package output

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/proxyscout/proxyscout/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatReport lists the working proxies of a batch run.
func (f *TableFormatter) FormatReport(report *core.Report) (string, error) {
	if msg := EmptyMessage(report); msg != "" {
		return msg, nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Proxy Scraper")
	t.AppendHeader(table.Row{"Proxy", "Type", "Country"})
	for _, r := range report.Working {
		t.AppendRow(table.Row{r.Address(), r.Type.Label(), r.Country.Label()})
	}
	t.AppendFooter(table.Row{"", "", Summary(report)})

	return t.Render(), nil
}

// FormatRecord shows one verification verdict.
func (f *TableFormatter) FormatRecord(record *core.VerificationRecord) (string, error) {
	if record == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Proxy Checker")
	t.AppendRows([]table.Row{
		{"Proxy", record.Address()},
		{"Status", workingLabel(record)},
		{"Type", record.Type.Display()},
		{"Country", record.Country.Display()},
	})

	return t.Render(), nil
}
