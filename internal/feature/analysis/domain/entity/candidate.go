package entity

// MatchKind describes how a query matched an instrument.
// Lower values are better matches.
type MatchKind int

const (
	// MatchExactKey means the query itself was a canonical key.
	MatchExactKey MatchKind = iota
	// MatchExactName means the display name equals the query.
	MatchExactName
	// MatchPrefix means the display name begins with the query.
	MatchPrefix
	// MatchSubstring means the query appears somewhere in the display name.
	MatchSubstring
	// MatchSuggestion marks a low-confidence hit from the broad not-found scan.
	MatchSuggestion
)

// String returns the wire name of the match kind.
func (m MatchKind) String() string {
	switch m {
	case MatchExactKey:
		return "exact_key"
	case MatchExactName:
		return "exact_name"
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	case MatchSuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// NameTiers lists the directory search tiers in priority order.
var NameTiers = []MatchKind{MatchExactName, MatchPrefix, MatchSubstring}

// Candidate is one resolution result for a user query.
type Candidate struct {
	Key         Key
	DisplayName string
	Match       MatchKind
}

// Best returns the best candidate of a ranked sequence.
// The lowest MatchKind wins; among equals the earlier one is kept.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Match < best.Match {
			best = c
		}
	}
	return best, true
}
