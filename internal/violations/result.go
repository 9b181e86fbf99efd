package violations

import "errors"

// ErrEmptyAfterSplit marks a message whose description is empty once the
// citation phrase has been cut out.
var ErrEmptyAfterSplit = errors.New("empty violation description")

// Result tallies one aggregation run.
type Result struct {
	Files      int
	Extracted  int
	Malformed  int
	EmptySplit int
	ReadErrors int
}

// Add merges two tallies.
func (r Result) Add(o Result) Result {
	return Result{
		Files:      r.Files + o.Files,
		Extracted:  r.Extracted + o.Extracted,
		Malformed:  r.Malformed + o.Malformed,
		EmptySplit: r.EmptySplit + o.EmptySplit,
		ReadErrors: r.ReadErrors + o.ReadErrors,
	}
}
