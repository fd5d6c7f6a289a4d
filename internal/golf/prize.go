package golf

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPayoutTable marks a prize distribution that must be rejected at import.
var ErrInvalidPayoutTable = errors.New("invalid payout table")

// PayoutEntry is one row of a tournament prize distribution.
// Amount is in whole currency units and is authoritative; Percentage is display only.
type PayoutEntry struct {
	Position   int      `json:"position" yaml:"position"`
	Percentage *float64 `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	Amount     int64    `json:"amount" yaml:"amount"`
}

// PayoutTable is a validated, immutable prize distribution.
type PayoutTable struct {
	entries []PayoutEntry
	amounts map[int]int64
	purse   int64
}

// ValidatePayoutEntries checks the invariants a distribution must hold before import:
// positions start at 1, are unique and contiguous, and no amount is negative.
func ValidatePayoutEntries(entries []PayoutEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidPayoutTable)
	}

	sorted := make([]PayoutEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	for i, entry := range sorted {
		if entry.Position < 1 {
			return fmt.Errorf("%w: position %d is not 1-based", ErrInvalidPayoutTable, entry.Position)
		}
		if entry.Amount < 0 {
			return fmt.Errorf("%w: position %d has negative amount %d", ErrInvalidPayoutTable, entry.Position, entry.Amount)
		}
		if entry.Percentage != nil && (*entry.Percentage < 0 || *entry.Percentage > 100) {
			return fmt.Errorf("%w: position %d has percentage %.4f outside 0-100", ErrInvalidPayoutTable, entry.Position, *entry.Percentage)
		}
		if i == 0 {
			if entry.Position != 1 {
				return fmt.Errorf("%w: first paid position is %d, want 1", ErrInvalidPayoutTable, entry.Position)
			}
			continue
		}
		prev := sorted[i-1].Position
		if entry.Position == prev {
			return fmt.Errorf("%w: duplicate position %d", ErrInvalidPayoutTable, entry.Position)
		}
		if entry.Position != prev+1 {
			return fmt.Errorf("%w: gap between positions %d and %d", ErrInvalidPayoutTable, prev, entry.Position)
		}
	}
	return nil
}

// NewPayoutTable validates entries and builds a lookup table.
func NewPayoutTable(entries []PayoutEntry) (PayoutTable, error) {
	if err := ValidatePayoutEntries(entries); err != nil {
		return PayoutTable{}, err
	}

	table := PayoutTable{
		entries: make([]PayoutEntry, len(entries)),
		amounts: make(map[int]int64, len(entries)),
	}
	copy(table.entries, entries)
	sort.Slice(table.entries, func(i, j int) bool { return table.entries[i].Position < table.entries[j].Position })
	for _, entry := range table.entries {
		table.amounts[entry.Position] = entry.Amount
		table.purse += entry.Amount
	}
	return table, nil
}

// Amount returns the payout for a single position, 0 past the paid field.
func (t PayoutTable) Amount(position int) int64 {
	return t.amounts[position]
}

// Purse is the sum of all distribution amounts.
func (t PayoutTable) Purse() int64 {
	return t.purse
}

// PaidPositions is the number of positions that carry a distribution entry.
func (t PayoutTable) PaidPositions() int {
	return len(t.entries)
}

// Entries returns the distribution ordered by position.
func (t PayoutTable) Entries() []PayoutEntry {
	out := make([]PayoutEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// PrizeInput carries everything the calculator needs about one player.
type PrizeInput struct {
	Position         *int
	TieGroupSize     int
	IsAmateur        bool
	HasTeedOff       bool
	ProjectedCutMiss bool
}

// CalculatePrize returns the whole-unit prize for one player.
func CalculatePrize(in PrizeInput, table PayoutTable) int64 {
	if in.Position == nil || !in.HasTeedOff || in.IsAmateur || in.ProjectedCutMiss {
		return 0
	}
	size := in.TieGroupSize
	if size < 1 {
		size = 1
	}
	return SplitTie(table, TieGroup{Start: *in.Position, Size: size})
}

// TiePool is the total money available to a tie group. Positions past the
// paid field contribute nothing.
func TiePool(table PayoutTable, group TieGroup) int64 {
	var sum int64
	for pos := group.Start; pos <= group.End(); pos++ {
		sum += table.Amount(pos)
	}
	return sum
}

// SplitTie divides a tie group's pool evenly, rounding half up once after summing.
func SplitTie(table PayoutTable, group TieGroup) int64 {
	if group.Size < 1 {
		return 0
	}
	return roundHalfUpDiv(TiePool(table, group), int64(group.Size))
}

func roundHalfUpDiv(sum, n int64) int64 {
	return (2*sum + n) / (2 * n)
}
