package engine

import "github.com/proxyscout/proxyscout/internal/core"

// Correlation pairs submitted candidates with the records returned for them.
type Correlation struct {
	Mode      core.CorrelationMode
	Matched   map[int]core.VerificationRecord
	Unmatched []core.Candidate
}

// Correlate matches records to the submitted batch. A record is matched by
// the index in its echoed tag when that index points at a candidate with the
// same address, otherwise by address. Records naming an address that was never
// submitted are dropped. When nothing matched either way, records without
// ip/port are assigned by position and the mode is reported as positional,
// since response order is not guaranteed.
func Correlate(submitted []core.Candidate, records core.VerificationResult) Correlation {
	result := Correlation{
		Mode:    core.CorrelationNone,
		Matched: make(map[int]core.VerificationRecord, len(records)),
	}
	if len(submitted) == 0 || len(records) == 0 {
		result.Unmatched = append([]core.Candidate{}, submitted...)
		return result
	}

	byAddress := make(map[string][]int, len(submitted))
	for i, candidate := range submitted {
		byAddress[candidate.Address()] = append(byAddress[candidate.Address()], i)
	}

	tagged, addressed := 0, 0
	var leftover []core.VerificationRecord
	for _, record := range records {
		if index, ok := core.TagIndex(record.Tag); ok && index < len(submitted) {
			if _, taken := result.Matched[index]; !taken && addressMatches(submitted[index], record) {
				result.Matched[index] = record
				tagged++
				continue
			}
		}
		leftover = append(leftover, record)
	}

	var anonymous []core.VerificationRecord
	for _, record := range leftover {
		if index, ok := firstFree(byAddress[record.Address()], result.Matched); ok {
			result.Matched[index] = record
			addressed++
			continue
		}
		if record.IP == "" && record.Port == "" {
			anonymous = append(anonymous, record)
		}
	}

	switch {
	case tagged > 0 && addressed == 0:
		result.Mode = core.CorrelationTagged
	case tagged+addressed > 0:
		result.Mode = core.CorrelationAddress
	case len(anonymous) > 0:
		result.Mode = core.CorrelationPositional
		position := 0
		for i := range submitted {
			if position >= len(anonymous) {
				break
			}
			result.Matched[i] = anonymous[position]
			position++
		}
	}

	for i, candidate := range submitted {
		if _, ok := result.Matched[i]; !ok {
			result.Unmatched = append(result.Unmatched, candidate)
		}
	}
	return result
}

// addressMatches tolerates records that omit ip/port.
func addressMatches(candidate core.Candidate, record core.VerificationRecord) bool {
	if record.IP == "" && record.Port == "" {
		return true
	}
	return candidate.IP == record.IP && candidate.Port == record.Port
}

func firstFree(indexes []int, matched map[int]core.VerificationRecord) (int, bool) {
	for _, index := range indexes {
		if _, taken := matched[index]; !taken {
			return index, true
		}
	}
	return 0, false
}
