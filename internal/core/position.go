package core

// Position is a caret location in the shared buffer, 1-based as editors
// report it.
type Position struct {
	Line   int
	Column int
}

// Range is a selection span between two positions.
type Range struct {
	Start Position
	End   Position
}

// Empty reports whether the range spans no characters, i.e. it is a plain
// caret rather than a selection.
func (r Range) Empty() bool {
	return r.Start == r.End
}
