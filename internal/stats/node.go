// Package stats holds the wire model for hierarchical call statistics and
// the ordering rules applied to top-level rows.
//
// A Node is one aggregated code path. Nodes form a tree through Children;
// a nil Children map marks a leaf while a present, possibly empty map marks
// a node whose subtree can be requested. Nodes received from the server are
// never mutated.
package stats

import (
	"sort"
)

type Node struct {
	// Hits is the call count reported for top-level nodes.
	Hits int64 `json:"hits"`
	// AH10 is the average hits per parent call, multiplied by ten, reported
	// for nested nodes.
	AH10 int64 `json:"ah10,omitempty"`
	Err  int64 `json:"err,omitempty"`
	// Min, Max and Avg are call durations in milliseconds.
	Min      float64          `json:"min"`
	Max      float64          `json:"max"`
	Avg      float64          `json:"avg"`
	Children map[string]*Node `json:"children"`
}

// HasChildren reports whether the node's subtree can be expanded.
func (n *Node) HasChildren() bool {
	return n != nil && n.Children != nil
}

// DisplayHits returns the hit figure shown at the given tree level: the raw
// count for top-level rows, AH10 scaled back down for everything nested.
func (n *Node) DisplayHits(level int) float64 {
	if level == 0 {
		return float64(n.Hits)
	}
	return float64(n.AH10) / 10
}

// ChildIDs returns the child ids in lexicographic order.
func (n *Node) ChildIDs() []string {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	ids := make([]string, 0, len(n.Children))
	for id := range n.Children {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entry pairs a top-level node with its id.
type Entry struct {
	ID   string `json:"id" yaml:"id"`
	Node *Node  `json:"stats" yaml:"stats"`
}

// TopLevel is the payload of a top-level load keyed by node id.
type TopLevel map[string]*Node

// Entries flattens the map into id order, skipping null nodes.
func (t TopLevel) Entries() []Entry {
	entries := make([]Entry, 0, len(t))
	for id, n := range t {
		if n == nil {
			continue
		}
		entries = append(entries, Entry{ID: id, Node: n})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}
