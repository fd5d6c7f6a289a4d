package golf

import (
	"strconv"
	"strings"
)

// FinishedMarker is the thru value providers use once a round is complete.
const FinishedMarker = "F"

// eliminatedMarkers are provider position texts for players no longer on the board.
var eliminatedMarkers = map[string]bool{
	"CUT": true,
	"MC":  true,
	"WD":  true,
	"W/D": true,
	"DQ":  true,
	"MDF": true,
}

// ParseScoreToPar parses provider score text such as "E", "+3" or "-12".
// Unparseable text yields 0 and false so one bad row cannot abort a snapshot.
func ParseScoreToPar(raw string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "E", "EVEN":
		return 0, true
	case "", "-", "--":
		return 0, false
	}

	s = strings.TrimPrefix(s, "+")
	score, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return score, true
}

// ParsePosition parses provider position text such as "1", "T3" or "=7".
func ParsePosition(raw string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimLeft(s, "T=")
	pos, err := strconv.Atoi(s)
	if err != nil || pos < 1 {
		return 0, false
	}
	return pos, true
}

// IsEliminated reports whether the provider marks the player as cut, withdrawn or disqualified.
func IsEliminated(rawPosition string) bool {
	return eliminatedMarkers[strings.ToUpper(strings.TrimSpace(rawPosition))]
}

// ThruStarted reports whether a thru value shows holes played rather than a tee time.
func ThruStarted(thru string) bool {
	s := strings.ToUpper(strings.TrimSpace(thru))
	if s == "" || s == "-" || s == "--" {
		return false
	}
	if strings.Contains(s, ":") || strings.Contains(s, "AM") || strings.Contains(s, "PM") {
		return false
	}
	// back-nine starters are flagged with a trailing asterisk
	s = strings.TrimSuffix(s, "*")
	if s == FinishedMarker || s == "FINISHED" {
		return true
	}
	holes, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return holes >= 1 && holes <= 18
}

// HasTeedOff decides whether a player holds a standing. A tee time in thru
// means the current round has not started, whatever position the feed echoes.
func HasTeedOff(entry LeaderboardEntry) bool {
	return entry.RoundComplete || ThruStarted(entry.Thru)
}

// FormatPosition renders a position with the conventional "T" prefix for ties.
func FormatPosition(position *int, tieGroupSize int) string {
	if position == nil {
		return "-"
	}
	label := strconv.Itoa(*position)
	if tieGroupSize > 1 {
		return "T" + label
	}
	return label
}

// FormatScore renders score-to-par the way leaderboards print it.
func FormatScore(score int) string {
	switch {
	case score == 0:
		return "E"
	case score > 0:
		return "+" + strconv.Itoa(score)
	default:
		return strconv.Itoa(score)
	}
}
