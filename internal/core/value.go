package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownLabel is shown for metadata the verification service did not report.
const UnknownLabel = "Unknown"

// StringOrFlag holds either textual metadata or a boolean "no data" sentinel.
// The upstream service sends false (occasionally true) instead of omitting a
// field, so the boolean carries no usable content.
type StringOrFlag struct {
	text   string
	flag   bool
	isFlag bool
}

// String returns the text variant.
func String(value string) StringOrFlag {
	return StringOrFlag{text: value}
}

// Flag returns the boolean sentinel variant.
func Flag(value bool) StringOrFlag {
	return StringOrFlag{flag: value, isFlag: true}
}

// IsFlag reports whether the value is the boolean sentinel.
func (v StringOrFlag) IsFlag() bool {
	return v.isFlag
}

// Text returns the text and whether the value is the text variant.
func (v StringOrFlag) Text() (string, bool) {
	if v.isFlag {
		return "", false
	}
	return v.text, true
}

// Display maps the sentinel to UnknownLabel and text to itself.
func (v StringOrFlag) Display() string {
	if v.isFlag {
		return UnknownLabel
	}
	return v.text
}

// Label is Display with blank text also treated as unknown.
func (v StringOrFlag) Label() string {
	if v.isFlag || v.text == "" {
		return UnknownLabel
	}
	return v.text
}

// UnmarshalJSON decodes by inspecting the raw token kind.
func (v *StringOrFlag) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 {
		return fmt.Errorf("string-or-flag: empty value")
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("string-or-flag: %w", err)
		}
		*v = String(text)
		return nil
	case 't', 'f':
		var flag bool
		if err := json.Unmarshal(raw, &flag); err != nil {
			return fmt.Errorf("string-or-flag: %w", err)
		}
		*v = Flag(flag)
		return nil
	default:
		return fmt.Errorf("string-or-flag: expected string or boolean, got %s", raw)
	}
}

// MarshalJSON preserves the variant.
func (v StringOrFlag) MarshalJSON() ([]byte, error) {
	if v.isFlag {
		return json.Marshal(v.flag)
	}
	return json.Marshal(v.text)
}
