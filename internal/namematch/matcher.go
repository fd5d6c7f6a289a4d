package namematch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoMatch means no rule joined the feed name to an internal player.
	ErrNoMatch = errors.New("no match")
	// ErrAmbiguous means a rule joined the feed name to more than one internal player.
	ErrAmbiguous = errors.New("ambiguous")
)

// Rule names the matching step that produced a result.
type Rule string

const (
	RuleExact     Rule = "exact"
	RuleAlias     Rule = "alias"
	RuleFirstName Rule = "first_name"
	RuleSwapped   Rule = "swapped"
)

// Candidate is an internal player the matcher can resolve to.
type Candidate struct {
	ID      string
	Name    string
	Aliases []string
}

// Result is a successful match.
type Result struct {
	PlayerID string
	Rule     Rule
}

type knownName struct {
	id    string
	first string
	last  string
}

// Matcher joins free-text feed names to internal player ids. It is built once
// per candidate set and is safe for concurrent use.
type Matcher struct {
	aliases *AliasTable
	exact   map[string][]string
	byLast  map[string][]knownName
}

// NewMatcher indexes candidates by their normalized display name and any
// alternate spellings they carry. A nil alias table disables nickname rules.
func NewMatcher(candidates []Candidate, aliases *AliasTable) *Matcher {
	m := &Matcher{
		aliases: aliases,
		exact:   make(map[string][]string),
		byLast:  make(map[string][]knownName),
	}
	for _, c := range candidates {
		names := append([]string{c.Name}, c.Aliases...)
		for _, name := range names {
			normalized := Normalize(name)
			if normalized == "" {
				continue
			}
			m.exact[normalized] = appendUnique(m.exact[normalized], c.ID)

			first, last := splitName(normalized)
			if last == "" {
				continue
			}
			m.byLast[last] = append(m.byLast[last], knownName{id: c.ID, first: first, last: last})
		}
	}
	return m
}

// Match runs the rules in order and returns the first that yields exactly one player.
func (m *Matcher) Match(name string) (Result, error) {
	normalized := Normalize(name)
	if normalized == "" {
		return Result{}, fmt.Errorf("%w: empty name", ErrNoMatch)
	}

	if ids := m.exact[normalized]; len(ids) > 0 {
		return single(ids, RuleExact, name)
	}

	if canonical, ok := m.aliases.Canonical(normalized); ok {
		if ids := m.exact[canonical]; len(ids) > 0 {
			return single(ids, RuleAlias, name)
		}
	}

	first, last := splitName(normalized)
	if last != "" {
		var ids []string
		for _, known := range m.byLast[last] {
			if m.firstNamesAgree(first, known.first) {
				ids = appendUnique(ids, known.id)
			}
		}
		if len(ids) > 0 {
			return single(ids, RuleFirstName, name)
		}

		var swapped []string
		for _, candidate := range rotations(normalized) {
			for _, id := range m.exact[candidate] {
				swapped = appendUnique(swapped, id)
			}
		}
		if len(swapped) > 0 {
			return single(swapped, RuleSwapped, name)
		}
	}

	return Result{}, fmt.Errorf("%w for %q", ErrNoMatch, name)
}

// Resolve returns only the player id; the error text is the unmatched reason.
func (m *Matcher) Resolve(name string) (string, error) {
	result, err := m.Match(name)
	if err != nil {
		return "", err
	}
	return result.PlayerID, nil
}

func (m *Matcher) firstNamesAgree(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
		return true
	}
	return m.aliases.Equivalent(a, b)
}

// rotations returns the name with its first token moved last and its last
// token moved first, covering "Last First" feeds in both directions.
func rotations(normalized string) []string {
	first, rest := splitName(normalized)
	if rest == "" {
		return nil
	}
	out := []string{rest + " " + first}

	lastSpace := strings.LastIndex(normalized, " ")
	moved := normalized[lastSpace+1:] + " " + normalized[:lastSpace]
	if moved != out[0] {
		out = append(out, moved)
	}
	return out
}

func single(ids []string, rule Rule, name string) (Result, error) {
	if len(ids) == 1 {
		return Result{PlayerID: ids[0], Rule: rule}, nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return Result{}, fmt.Errorf("%w: %q fits %d players %v", ErrAmbiguous, name, len(sorted), sorted)
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
