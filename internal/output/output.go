package output

import (
	"fmt"
	"strings"

	"github.com/proxyscout/proxyscout/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatList     Format = "list"
)

// Messages shown when a batch run has nothing to list.
const (
	MessageNoCandidates = "no proxies available"
	MessageNoWorking    = "no working proxies found"
)

// Formatter renders pipeline results.
type Formatter interface {
	FormatReport(report *core.Report) (string, error)
	FormatRecord(record *core.VerificationRecord) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatList):
		return FormatList, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatList:
		return &ListFormatter{}
	default:
		return &TableFormatter{}
	}
}

// EmptyMessage returns the human message for a report with nothing working,
// or "" when the report has working proxies.
func EmptyMessage(report *core.Report) string {
	if report == nil {
		return MessageNoCandidates
	}
	switch {
	case report.Status == core.ReportStatusNoCandidates:
		return MessageNoCandidates
	case report.Status == core.ReportStatusNoWorking || len(report.Working) == 0:
		return MessageNoWorking
	default:
		return ""
	}
}

// Summary describes how many sampled proxies are working.
func Summary(report *core.Report) string {
	if report == nil {
		return ""
	}
	summary := fmt.Sprintf("%d/%d working", len(report.Working), report.Sampled)
	if report.Correlation == core.CorrelationPositional {
		summary += " (matched by position)"
	}
	if n := len(report.Unmatched); n > 0 {
		summary += fmt.Sprintf(", %d unanswered", n)
	}
	return summary
}

func workingLabel(record *core.VerificationRecord) string {
	if record.Working {
		return "Working"
	}
	return "Not Working"
}
