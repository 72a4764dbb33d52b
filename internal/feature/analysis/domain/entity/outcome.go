package entity

// RowLimit is the number of most recent rows returned by an analysis request.
const RowLimit = 30

// Outcome is the result of one Analyze call, returned to the view layer.
type Outcome struct {
	RunID        string
	Query        string
	ResolvedKey  Key
	ResolvedName string
	Match        MatchKind
	Rows         []AnalysisRow
	Diagnostics  []string
	Suggestions  []Candidate
	Invocations  []StageInvocation
	// Err is the terminal failure reason, if any. Rows may still be present
	// when a stage failed but older data could be read.
	Err error
}

// Resolved reports whether the query was mapped to an instrument key.
func (o *Outcome) Resolved() bool {
	return o.ResolvedKey != ""
}

// Note appends a diagnostic line.
func (o *Outcome) Note(msg string) {
	o.Diagnostics = append(o.Diagnostics, msg)
}
