package output

import (
	"strings"

	"github.com/proxyscout/proxyscout/internal/core"
)

// ListFormatter renders bare ip:port lines, suitable for feeding other tools.
type ListFormatter struct{}

// FormatReport lists working proxies, one per line. An empty list renders as
// an empty string so redirected output stays machine-readable.
func (f *ListFormatter) FormatReport(report *core.Report) (string, error) {
	if report == nil || len(report.Working) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(report.Working))
	for _, r := range report.Working {
		lines = append(lines, r.Address())
	}
	return strings.Join(lines, "\n"), nil
}

func (f *ListFormatter) FormatRecord(record *core.VerificationRecord) (string, error) {
	if record == nil || !record.Working {
		return "", nil
	}
	return record.Address(), nil
}
