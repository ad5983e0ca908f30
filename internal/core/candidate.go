package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FormatError reports a caller-supplied candidate that is not ip:port.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed input %q: expected ip:port", e.Input)
}

// ParseCandidate parses a single caller-supplied ip:port string. The text is
// used as given; whitespace around the colon is passed on to the verifier.
func ParseCandidate(value string) (Candidate, error) {
	ip, port, ok := strings.Cut(value, ":")
	if !ok || ip == "" || port == "" {
		return Candidate{}, &FormatError{Input: value}
	}
	return Candidate{IP: ip, Port: port}, nil
}

// ParseCandidates reads one candidate per line, splitting on the first colon.
// Lines without a colon or with an empty side are skipped; anything after
// the first colon is kept verbatim as the port.
func ParseCandidates(r io.Reader) ([]Candidate, error) {
	candidates := make([]Candidate, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		ip, port, ok := strings.Cut(scanner.Text(), ":")
		if !ok || ip == "" || port == "" {
			continue
		}
		candidates = append(candidates, Candidate{IP: ip, Port: port})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read candidate list: %w", err)
	}

	return candidates, nil
}
