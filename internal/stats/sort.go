package stats

import (
	"fmt"
	"slices"
	"strings"
)

type Field string

const (
	FieldID   Field = "id"
	FieldHits Field = "hits"
	FieldMin  Field = "min"
	FieldMax  Field = "max"
	FieldAvg  Field = "avg"
)

// Fields lists the sortable columns in display order.
func Fields() []Field {
	return []Field{FieldID, FieldHits, FieldMin, FieldMax, FieldAvg}
}

func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(s))
	for _, known := range Fields() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Direction multiplies the natural comparison: +1 ascending, -1 descending.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// DefaultDirection is the direction a column starts with when it becomes
// active: names ascending, measurements largest first.
func (f Field) DefaultDirection() Direction {
	if f == FieldID {
		return Ascending
	}
	return Descending
}

type SortState struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

func DefaultSort() SortState {
	return SortState{Field: FieldID, Direction: Ascending}
}

// Normalize replaces unknown fields or directions with defaults, used when
// reading persisted state.
func (s SortState) Normalize() SortState {
	if _, err := ParseField(string(s.Field)); err != nil {
		return DefaultSort()
	}
	if s.Direction != Ascending && s.Direction != Descending {
		s.Direction = s.Field.DefaultDirection()
	}
	return s
}

// Toggle returns the state after the user picks column f. Picking the active
// column flips its direction; any other column becomes active with its
// default direction.
func (s SortState) Toggle(f Field) SortState {
	if s.Field == f {
		return SortState{Field: f, Direction: -s.Direction}
	}
	return SortState{Field: f, Direction: f.DefaultDirection()}
}

// Flip reverses the direction of the active column.
func (s SortState) Flip() SortState {
	return s.Toggle(s.Field)
}

// Compare orders a before b (negative), after b (positive) or as equal.
// Numeric fields compare by the sign of their difference, ids
// lexicographically; the result is multiplied by the direction.
func Compare(a, b Entry, s SortState) int {
	var c int
	switch s.Field {
	case FieldHits:
		c = sign(float64(a.Node.Hits) - float64(b.Node.Hits))
	case FieldMin:
		c = sign(a.Node.Min - b.Node.Min)
	case FieldMax:
		c = sign(a.Node.Max - b.Node.Max)
	case FieldAvg:
		c = sign(a.Node.Avg - b.Node.Avg)
	default:
		c = strings.Compare(a.ID, b.ID)
	}
	return c * int(s.Direction)
}

// Sort orders entries in place. Rows that compare equal keep id order.
func Sort(entries []Entry, s SortState) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := Compare(a, b, s); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func sign(d float64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}
