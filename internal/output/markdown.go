package output

import (
	"fmt"
	"strings"

	"github.com/proxyscout/proxyscout/internal/core"
)

// MarkdownFormatter renders chat-friendly markdown with emoji flag
// shortcodes for countries.
type MarkdownFormatter struct{}

// FormatReport renders the working proxies as a markdown table.
func (f *MarkdownFormatter) FormatReport(report *core.Report) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Proxy Scraper\n\n")

	if msg := EmptyMessage(report); msg != "" {
		sb.WriteString(msg)
		sb.WriteString("\n")
		return sb.String(), nil
	}

	sb.WriteString("| Proxy | Type | Country |\n")
	sb.WriteString("|-------|------|---------|\n")
	for _, r := range report.Working {
		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s |\n",
			escapeMarkdownCell(r.Address()),
			escapeMarkdownCell(r.Type.Label()),
			countryFlag(r.Country),
		))
	}
	sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", Summary(report)))

	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatRecord(record *core.VerificationRecord) (string, error) {
	if record == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Proxy Checker\n\n")
	sb.WriteString(fmt.Sprintf("**Status**: %s\n", workingLabel(record)))
	sb.WriteString(fmt.Sprintf("**Type**: %s\n", escapeMarkdownCell(record.Type.Display())))
	sb.WriteString(fmt.Sprintf("**Country**: %s\n", countryFlag(record.Country)))
	return sb.String(), nil
}

// countryFlag renders a country code as :flag_xx:, or Unknown.
func countryFlag(country core.StringOrFlag) string {
	code, ok := country.Text()
	if !ok {
		return core.UnknownLabel
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return core.UnknownLabel
	}
	return fmt.Sprintf(":flag_%s:", escapeMarkdownCell(code))
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
