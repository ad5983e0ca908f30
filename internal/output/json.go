package output

import (
	"encoding/json"

	"github.com/proxyscout/proxyscout/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders the whole report, including non-working records.
func (f *JSONFormatter) FormatReport(report *core.Report) (string, error) {
	if report == nil {
		return "null", nil
	}
	return f.marshal(report)
}

// FormatRecord renders one record with its display labels.
func (f *JSONFormatter) FormatRecord(record *core.VerificationRecord) (string, error) {
	if record == nil {
		return "null", nil
	}
	return f.marshal(record)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
