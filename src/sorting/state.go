package sorting

// Direction of a column sort.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// State is the column sort chosen by the operator. An empty Column means the
// input order is kept as delivered.
type State struct {
	Column    string    `json:"column,omitempty"`
	Direction Direction `json:"direction"`
}

// Unsorted is the zero sort.
func Unsorted() State { return State{Direction: Ascending} }

// Active reports whether a column is selected.
func (s State) Active() bool { return s.Column != "" }

// Toggle advances the click cycle for column: unsorted -> asc -> desc -> unsorted.
// Clicking a different column starts it ascending. Columns that are not
// sortable leave the state untouched.
func (s State) Toggle(column string) State {
	if !IsSortable(column) {
		return s
	}
	if s.Column != column {
		return State{Column: column, Direction: Ascending}
	}
	if s.Direction != Descending {
		return State{Column: column, Direction: Descending}
	}
	return Unsorted()
}

func (s State) sign() int {
	if s.Direction == Descending {
		return -1
	}
	return 1
}
