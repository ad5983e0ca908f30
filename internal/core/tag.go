package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CorrelationTag builds the ip:port-index value submitted for a candidate.
func CorrelationTag(candidate Candidate, index int) string {
	return fmt.Sprintf("%s:%s-%d", candidate.IP, candidate.Port, index)
}

// TagIndex extracts the submission index from a tag echoed by the service.
// Both the full "ip:port-N" form and a bare "N" are accepted.
func TagIndex(tag string) (int, bool) {
	value := strings.TrimSpace(tag)
	if i := strings.LastIndex(value, "-"); i >= 0 {
		value = value[i+1:]
	}
	if value == "" {
		return 0, false
	}

	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
