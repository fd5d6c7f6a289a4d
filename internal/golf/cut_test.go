package golf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectedToMissCut_EarlyRounds(t *testing.T) {
	cut := &CutLine{Score: 2, PlayersCount: 65}

	assert.True(t, ProjectedToMissCut(intPtr(70), 3, cut, 1))
	assert.True(t, ProjectedToMissCut(intPtr(70), 3, cut, 2))
	assert.False(t, ProjectedToMissCut(intPtr(60), 2, cut, 2), "on the line makes the cut")
	assert.False(t, ProjectedToMissCut(intPtr(10), -4, cut, 1))
}

func TestProjectedToMissCut_AfterCut(t *testing.T) {
	cut := &CutLine{Score: 2, PlayersCount: 65}

	// the provider has already removed missed-cut players, projection no longer applies
	assert.False(t, ProjectedToMissCut(intPtr(70), 5, cut, 3))
	assert.False(t, ProjectedToMissCut(intPtr(70), 5, cut, 4))
}

func TestProjectedToMissCut_NeedsCutLineAndPosition(t *testing.T) {
	assert.False(t, ProjectedToMissCut(intPtr(5), 9, nil, 1))
	assert.False(t, ProjectedToMissCut(nil, 9, &CutLine{Score: 0}, 1))
}
