package core

import (
	"encoding/json"
	"time"
)

// Candidate is an unverified ip:port pair proposed as a proxy.
type Candidate struct {
	IP   string `json:"ip"`
	Port string `json:"port"`
}

// Address renders the candidate as ip:port.
func (c Candidate) Address() string {
	return c.IP + ":" + c.Port
}

// VerificationRecord is the verification service's judgment about one candidate.
type VerificationRecord struct {
	Working bool         `json:"working"`
	Type    StringOrFlag `json:"type"`
	IP      string       `json:"ip"`
	Port    string       `json:"port"`
	Country StringOrFlag `json:"country"`
	Tag     string       `json:"ind"`
}

// Address renders the record endpoint as ip:port.
func (r VerificationRecord) Address() string {
	return r.IP + ":" + r.Port
}

// MarshalJSON keeps the raw type/country values and adds their display labels.
func (r VerificationRecord) MarshalJSON() ([]byte, error) {
	type plain VerificationRecord
	return json.Marshal(struct {
		plain
		TypeLabel    string `json:"type_label"`
		CountryLabel string `json:"country_label"`
	}{plain(r), r.Type.Label(), r.Country.Label()})
}

// VerificationResult holds decoded records in response order.
type VerificationResult []VerificationRecord

// Working returns the records whose working flag is set, preserving order.
func (r VerificationResult) Working() VerificationResult {
	working := make(VerificationResult, 0, len(r))
	for _, record := range r {
		if record.Working {
			working = append(working, record)
		}
	}
	return working
}

// ReportStatus summarizes how a pipeline run ended.
type ReportStatus string

const (
	ReportStatusOK           ReportStatus = "ok"
	ReportStatusNoCandidates ReportStatus = "no_candidates"
	ReportStatusNoWorking    ReportStatus = "no_working"
)

// CorrelationMode reports how records were matched to submitted candidates.
type CorrelationMode string

const (
	CorrelationNone       CorrelationMode = "none"
	CorrelationTagged     CorrelationMode = "tagged"
	CorrelationAddress    CorrelationMode = "address"
	CorrelationPositional CorrelationMode = "positional"
)

// Report captures the outcome of one batch pipeline run.
type Report struct {
	RunID       string             `json:"run_id"`
	Requested   int                `json:"requested"`
	Fetched     int                `json:"fetched"`
	Sampled     int                `json:"sampled"`
	Records     VerificationResult `json:"records"`
	Working     VerificationResult `json:"working"`
	Unmatched   []Candidate        `json:"unmatched,omitempty"`
	Correlation CorrelationMode    `json:"correlation"`
	Status      ReportStatus       `json:"status"`
	RequestedAt time.Time          `json:"requested_at"`
	ResolvedAt  time.Time          `json:"resolved_at"`
}
