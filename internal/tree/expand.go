package tree

import (
	"github.com/nixlim/scopetop/internal/stats"
)

// Activation is what the caller must do after a top-level row is chosen.
type Activation struct {
	// Fetch is set when the row entered Loading; the subtree and history
	// should be requested with Gen.
	Fetch bool
	Gen   uint64
}

// Activate handles selecting a top-level row. Every open subtree is closed
// first. Choosing the row that was already expanded or loading only closes
// it; otherwise the row starts loading.
func (t *Tree) Activate(key string) Activation {
	r, ok := t.index[key]
	if !ok || r.Level != 0 {
		return Activation{}
	}
	wasOpen := r.State == Expanded || r.State == Loading

	t.CollapseAll()
	if wasOpen {
		return Activation{}
	}

	gen, ok := t.BeginExpand(key)
	return Activation{Fetch: ok, Gen: gen}
}

// BeginExpand moves a collapsed or failed row into Loading and returns the
// token the eventual response must carry.
func (t *Tree) BeginExpand(key string) (uint64, bool) {
	r, ok := t.index[key]
	if !ok {
		return 0, false
	}
	if r.State != Collapsed && r.State != Error {
		return 0, false
	}
	t.gen++
	r.gen = t.gen
	r.State = Loading
	return r.gen, true
}

// ApplyChildren inserts the subtree under key. It is ignored, returning
// false, unless the row is still Loading with the same token; a row that
// was collapsed or reloaded meanwhile never gets its late subtree.
func (t *Tree) ApplyChildren(key string, gen uint64, node *stats.Node) bool {
	r, ok := t.index[key]
	if !ok || r.State != Loading || r.gen != gen {
		return false
	}
	r.State = Expanded
	r.gen = 0

	pos := t.position(key)
	built := buildSubtree(r, node)
	if len(built) == 0 {
		return true
	}

	rows := make([]*Row, 0, len(t.rows)+len(built))
	rows = append(rows, t.rows[:pos+1]...)
	rows = append(rows, built...)
	rows = append(rows, t.rows[pos+1:]...)
	t.rows = rows
	for _, b := range built {
		t.index[b.Key] = b
	}
	return true
}

// Fail returns a Loading row to a non-loading state after its fetch failed.
func (t *Tree) Fail(key string, gen uint64) bool {
	r, ok := t.index[key]
	if !ok || r.State != Loading || r.gen != gen {
		return false
	}
	r.State = Error
	r.gen = 0
	return true
}

// Collapse deletes every row below key and marks it Collapsed. Any fetch in
// flight for it becomes stale.
func (t *Tree) Collapse(key string) {
	pos := t.position(key)
	if pos < 0 {
		return
	}
	end := t.subtreeEnd(pos)
	for _, d := range t.rows[pos+1 : end] {
		delete(t.index, d.Key)
	}
	t.rows = append(t.rows[:pos+1], t.rows[end:]...)

	r := t.rows[pos]
	r.State = Collapsed
	r.gen = 0
}

// CollapseAll collapses every top-level row that is not already collapsed.
func (t *Tree) CollapseAll() {
	var keys []string
	for _, r := range t.rows {
		if r.Level == 0 && r.State != Collapsed {
			keys = append(keys, r.Key)
		}
	}
	for _, k := range keys {
		t.Collapse(k)
	}
}

// ToggleDisclosure opens or closes a nested row's already-loaded subtree.
// Closing hides every descendant. Opening shows every descendant and marks
// nested parents as open.
func (t *Tree) ToggleDisclosure(key string) bool {
	r, ok := t.index[key]
	if !ok || r.Level == 0 || !r.HasChildren() {
		return false
	}
	desc := t.Descendants(key)
	if r.State == Expanded {
		for _, d := range desc {
			d.shown = false
		}
		r.State = Collapsed
		return true
	}
	for _, d := range desc {
		d.shown = true
		if d.HasChildren() {
			d.State = Expanded
		}
	}
	r.State = Expanded
	return true
}

// ApplySearch collapses everything and hides top-level rows whose id does
// not match.
func (t *Tree) ApplySearch(match func(id string) bool) {
	t.search = match
	t.CollapseAll()
	for _, r := range t.rows {
		if r.Level == 0 {
			r.matched = t.matches(r.ID)
		}
	}
}

func (t *Tree) matches(id string) bool {
	if t.search == nil {
		return true
	}
	return t.search(id)
}

type frame struct {
	parent *Row
	id     string
	node   *stats.Node
}

// buildSubtree flattens node's children depth-first, siblings in id order.
func buildSubtree(root *Row, node *stats.Node) []*Row {
	if node == nil {
		return nil
	}
	var out []*Row
	stack := pushChildren(nil, root, node)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := make([]string, len(f.parent.Path)+1)
		copy(path, f.parent.Path)
		path[len(path)-1] = f.id

		level := f.parent.Level + 1
		r := &Row{
			Key:   Key(path...),
			Path:  path,
			ID:    f.id,
			Level: level,
			Node:  f.node,
			State: Collapsed,
			shown: level <= MaxAutoShownLevel,
		}
		if r.HasChildren() && level < MaxAutoShownLevel {
			r.State = Expanded
		}
		out = append(out, r)
		stack = pushChildren(stack, r, f.node)
	}
	return out
}

// pushChildren pushes in reverse id order so the smallest id pops first.
func pushChildren(stack []frame, parent *Row, node *stats.Node) []frame {
	ids := node.ChildIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		child := node.Children[ids[i]]
		if child == nil {
			continue
		}
		stack = append(stack, frame{parent: parent, id: ids[i], node: child})
	}
	return stack
}
