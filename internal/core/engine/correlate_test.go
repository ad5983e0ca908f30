package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proxyscout/proxyscout/internal/core"
)

func record(ip, port, tag string, working bool) core.VerificationRecord {
	return core.VerificationRecord{
		Working: working,
		Type:    core.String("HTTP"),
		IP:      ip,
		Port:    port,
		Country: core.Flag(false),
		Tag:     tag,
	}
}

func TestCorrelateOrderPreserving(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}, {IP: "2.2.2.2", Port: "2"}}
	records := core.VerificationResult{
		record("1.1.1.1", "1", "1.1.1.1:1-0", true),
		record("2.2.2.2", "2", "2.2.2.2:2-1", false),
	}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationTagged, result.Mode)
	require.Equal(t, "1.1.1.1", result.Matched[0].IP)
	require.Equal(t, "2.2.2.2", result.Matched[1].IP)
	require.Empty(t, result.Unmatched)
}

func TestCorrelateDroppedMiddleRecord(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}, {IP: "2.2.2.2", Port: "2"}, {IP: "3.3.3.3", Port: "3"}}
	records := core.VerificationResult{
		record("1.1.1.1", "1", "1.1.1.1:1-0", true),
		record("3.3.3.3", "3", "3.3.3.3:3-2", true),
	}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationTagged, result.Mode)
	require.Equal(t, "3.3.3.3", result.Matched[2].IP)
	require.Equal(t, []core.Candidate{{IP: "2.2.2.2", Port: "2"}}, result.Unmatched)
}

func TestCorrelateReorderedResponse(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}, {IP: "2.2.2.2", Port: "2"}}
	records := core.VerificationResult{
		record("2.2.2.2", "2", "1", true),
		record("1.1.1.1", "1", "0", true),
	}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationTagged, result.Mode)
	require.Equal(t, "1.1.1.1", result.Matched[0].IP)
	require.Equal(t, "2.2.2.2", result.Matched[1].IP)
}

func TestCorrelateOpaqueTagsFallBackToAddress(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}, {IP: "2.2.2.2", Port: "2"}}
	records := core.VerificationResult{
		record("2.2.2.2", "2", "abc", true),
		record("1.1.1.1", "1", "1", true), // index 1 names another address
	}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationAddress, result.Mode)
	require.Equal(t, "1.1.1.1", result.Matched[0].IP)
	require.Equal(t, "2.2.2.2", result.Matched[1].IP)
	require.Empty(t, result.Unmatched)
}

func TestCorrelatePositionalWhenAnonymous(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}, {IP: "2.2.2.2", Port: "2"}}
	records := core.VerificationResult{record("", "", "", true)}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationPositional, result.Mode)
	require.Contains(t, result.Matched, 0)
	require.Equal(t, []core.Candidate{{IP: "2.2.2.2", Port: "2"}}, result.Unmatched)
}

func TestCorrelateDropsUnknownAddresses(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}}
	records := core.VerificationResult{record("9.9.9.9", "9", "", true)}

	result := Correlate(batch, records)
	require.Equal(t, core.CorrelationNone, result.Mode)
	require.Empty(t, result.Matched)
	require.Equal(t, batch, result.Unmatched)
}

func TestCorrelateEmptyResponse(t *testing.T) {
	batch := []core.Candidate{{IP: "1.1.1.1", Port: "1"}}

	result := Correlate(batch, core.VerificationResult{})
	require.Equal(t, core.CorrelationNone, result.Mode)
	require.Equal(t, batch, result.Unmatched)
}
