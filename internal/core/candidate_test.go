package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCandidatesFiltersMalformedLines(t *testing.T) {
	body := strings.Join([]string{"1.2.3.4:8080", "bad", ":9999", "5.6.7.8:"}, "\n")

	candidates, err := ParseCandidates(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, []Candidate{{IP: "1.2.3.4", Port: "8080"}}, candidates)
}

func TestParseCandidatesKeepsOrderAndDuplicates(t *testing.T) {
	body := "10.0.0.1:80\r\n10.0.0.2:3128\r\n10.0.0.1:80\r\n"

	candidates, err := ParseCandidates(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, []Candidate{
		{IP: "10.0.0.1", Port: "80"},
		{IP: "10.0.0.2", Port: "3128"},
		{IP: "10.0.0.1", Port: "80"},
	}, candidates)
}

func TestParseCandidatesSplitsOnFirstColonOnly(t *testing.T) {
	candidates, err := ParseCandidates(strings.NewReader("1.1.1.1:8080:extra column\n"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "1.1.1.1", candidates[0].IP)
	require.Equal(t, "8080:extra column", candidates[0].Port)
}

func TestParseCandidatesEmptyBody(t *testing.T) {
	candidates, err := ParseCandidates(strings.NewReader(""))
	require.NoError(t, err)
	require.NotNil(t, candidates)
	require.Empty(t, candidates)
}

func TestParseCandidate(t *testing.T) {
	candidate, err := ParseCandidate("127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, Candidate{IP: "127.0.0.1", Port: "8080"}, candidate)
	require.Equal(t, "127.0.0.1:8080", candidate.Address())

	candidate, err = ParseCandidate("127.0.0.1: 8080")
	require.NoError(t, err)
	require.Equal(t, Candidate{IP: "127.0.0.1", Port: " 8080"}, candidate)

	for _, input := range []string{"127.0.0.1", "", ":8080", "127.0.0.1:"} {
		_, err := ParseCandidate(input)
		var formatErr *FormatError
		require.True(t, errors.As(err, &formatErr), "input %q", input)
		require.Equal(t, input, formatErr.Input)
	}
}

func TestCorrelationTag(t *testing.T) {
	require.Equal(t, "1.2.3.4:8080-7", CorrelationTag(Candidate{IP: "1.2.3.4", Port: "8080"}, 7))

	index, ok := TagIndex("1.2.3.4:8080-7")
	require.True(t, ok)
	require.Equal(t, 7, index)

	index, ok = TagIndex(" 0 ")
	require.True(t, ok)
	require.Equal(t, 0, index)

	for _, tag := range []string{"", "abc", "1.2.3.4:8080-", "1.2.3.4:8080-x"} {
		_, ok := TagIndex(tag)
		require.False(t, ok, "tag %q", tag)
	}
}
