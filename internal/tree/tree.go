// Package tree keeps the flattened, display-ordered rows of the statistics
// call tree and the rules for expanding, collapsing and hiding them.
//
// Rows live in a single slice in display order and are indexed by their
// path key (the ids from the top-level node down, joined). Top-level rows
// are replaced wholesale on every load. A top-level row's subtree is only
// present while that row is expanded; collapsing deletes it and expanding
// again requires a new fetch.
package tree

import (
	"strings"

	"github.com/nixlim/scopetop/internal/stats"
)

// MaxAutoShownLevel is the deepest level made visible when a subtree
// arrives. Deeper rows stay hidden until an ancestor's disclosure is opened.
const MaxAutoShownLevel = 2

const keySep = "\x1f"

type NodeState int

const (
	Collapsed NodeState = iota
	Loading
	Expanded
	Error
)

func (s NodeState) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Loading:
		return "loading"
	case Expanded:
		return "expanded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

type Row struct {
	Key   string
	Path  []string
	ID    string
	Level int
	Node  *stats.Node
	State NodeState

	shown   bool
	matched bool
	gen     uint64
}

// HasChildren reports whether the row shows a disclosure control.
func (r *Row) HasChildren() bool {
	return r.Node.HasChildren()
}

// TopID is the id of the row's top-level ancestor.
func (r *Row) TopID() string {
	return r.Path[0]
}

// Key joins a path into the row index key.
func Key(path ...string) string {
	return strings.Join(path, keySep)
}

type Tree struct {
	rows   []*Row
	index  map[string]*Row
	gen    uint64
	search func(id string) bool
}

func New() *Tree {
	return &Tree{index: make(map[string]*Row)}
}

// Load replaces every row with the given top-level entries, in order.
// Requests in flight for the previous rows become stale.
func (t *Tree) Load(entries []stats.Entry) {
	t.gen++
	t.rows = make([]*Row, 0, len(entries))
	t.index = make(map[string]*Row, len(entries))
	for _, e := range entries {
		r := &Row{
			Key:     Key(e.ID),
			Path:    []string{e.ID},
			ID:      e.ID,
			Node:    e.Node,
			State:   Collapsed,
			shown:   true,
			matched: t.matches(e.ID),
		}
		t.rows = append(t.rows, r)
		t.index[r.Key] = r
	}
}

// Get returns the row for key.
func (t *Tree) Get(key string) (*Row, bool) {
	r, ok := t.index[key]
	return r, ok
}

// Len is the total number of rows including hidden ones.
func (t *Tree) Len() int { return len(t.rows) }

// TopLevelCount is the number of top-level rows, visible or not.
func (t *Tree) TopLevelCount() int {
	n := 0
	for _, r := range t.rows {
		if r.Level == 0 {
			n++
		}
	}
	return n
}

// Visible returns the rows that should be drawn, in display order.
func (t *Tree) Visible() []*Row {
	out := make([]*Row, 0, len(t.rows))
	hiddenTop := false
	for _, r := range t.rows {
		if r.Level == 0 {
			hiddenTop = !r.matched
			if hiddenTop {
				continue
			}
			out = append(out, r)
			continue
		}
		if hiddenTop || !r.shown {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (t *Tree) position(key string) int {
	for i, r := range t.rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}

// subtreeEnd returns the index one past the last row belonging to the row
// at pos: the first following row whose level is not deeper.
func (t *Tree) subtreeEnd(pos int) int {
	level := t.rows[pos].Level
	end := pos + 1
	for end < len(t.rows) && t.rows[end].Level > level {
		end++
	}
	return end
}

// Descendants returns every row below key up to the next row at the same or
// a shallower level.
func (t *Tree) Descendants(key string) []*Row {
	pos := t.position(key)
	if pos < 0 {
		return nil
	}
	end := t.subtreeEnd(pos)
	out := make([]*Row, end-pos-1)
	copy(out, t.rows[pos+1:end])
	return out
}
