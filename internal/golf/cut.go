package golf

// ProjectionRoundLimit is the first round in which no cut projection applies.
const ProjectionRoundLimit = 3

// ProjectedToMissCut reports whether a positioned player must be paid nothing
// because their total sits strictly outside the projected cut line.
//
// Projection only exists before the cut is made (rounds 1 and 2, cut line
// present). From round 3 on the provider has already removed missed-cut
// players, so a nil position is the only elimination signal.
func ProjectedToMissCut(position *int, totalScore int, cut *CutLine, round int) bool {
	if position == nil || cut == nil {
		return false
	}
	if round >= ProjectionRoundLimit {
		return false
	}
	return totalScore > cut.Score
}
