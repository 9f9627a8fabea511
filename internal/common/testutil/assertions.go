package testutil

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metrorail/induction-planner/internal/domain"
)

// AssertValidUUID checks if a string is a valid UUID.
func AssertValidUUID(t *testing.T, id string, msgAndArgs ...interface{}) bool {
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	return assert.Regexp(t, uuidRegex, id, msgAndArgs...)
}

// AssertValidTrainCode checks if a string matches the trainset code format.
func AssertValidTrainCode(t *testing.T, code string, msgAndArgs ...interface{}) bool {
	return assert.True(t, domain.ValidTrainCode(code), msgAndArgs...)
}

// AssertValidConfidenceScore checks that a ranked entry's confidence score
// falls within the documented 60..100 range.
func AssertValidConfidenceScore(t *testing.T, score int, msgAndArgs ...interface{}) bool {
	return assert.GreaterOrEqual(t, score, 60, msgAndArgs...) &&
		assert.LessOrEqual(t, score, 100, msgAndArgs...)
}

// AssertDenseRanking checks that ranks across entries are 1-based, unique,
// and contiguous regardless of input order.
func AssertDenseRanking(t *testing.T, entries []domain.RankedEntry, msgAndArgs ...interface{}) bool {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.Rank] {
			return assert.Fail(t, "duplicate rank", append([]interface{}{e.Rank}, msgAndArgs...)...)
		}
		seen[e.Rank] = true
	}
	for i := 1; i <= len(entries); i++ {
		if !seen[i] {
			return assert.Fail(t, "rank gap", append([]interface{}{i}, msgAndArgs...)...)
		}
	}
	return true
}
