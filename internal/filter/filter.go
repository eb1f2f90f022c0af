// Package filter holds the search term and server-side facets that narrow
// which statistics are shown.
package filter

import (
	"encoding/json"
	"net/url"
	"strings"
)

const (
	AllInstancesLabel = "all instances"
	AllTypesLabel     = "all types"
)

// Facet is an optional server-side restriction. The zero value means no
// restriction and is distinct from every real value, including "".
type Facet struct {
	value string
	set   bool
}

func Any() Facet { return Facet{} }

func Only(v string) Facet { return Facet{value: v, set: true} }

func (f Facet) Value() (string, bool) { return f.value, f.set }

func (f Facet) IsAny() bool { return !f.set }

// Label renders the facet, using allLabel for the unrestricted case.
func (f Facet) Label(allLabel string) string {
	if !f.set {
		return allLabel
	}
	return f.value
}

func (f Facet) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Facet) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*f = Any()
		return nil
	}
	*f = Only(*v)
	return nil
}

// State is the full filter selection. Search is applied locally to loaded
// top-level ids; Instance and Type are sent to the server.
type State struct {
	Search   string
	Instance Facet
	Type     Facet
}

// MatchesSearch reports whether id contains the search term, ignoring case.
// An empty term matches everything.
func (s State) MatchesSearch(id string) bool {
	if s.Search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(id), strings.ToLower(s.Search))
}

// Encode adds the facet parameters to q. Unrestricted facets are omitted.
func (s State) Encode(q url.Values) {
	if v, ok := s.Instance.Value(); ok {
		q.Set("instance", v)
	}
	if v, ok := s.Type.Value(); ok {
		q.Set("type", v)
	}
}

// Label renders the facet selection as instance/type.
func (s State) Label() string {
	return s.Instance.Label(AllInstancesLabel) + "/" + s.Type.Label(AllTypesLabel)
}

// Values are the facet values the server knows for a window.
type Values struct {
	Instances []string `json:"instances" yaml:"instances"`
	Types     []string `json:"types" yaml:"types"`
}

// Option is one entry of a facet selector.
type Option struct {
	Label string
	Facet Facet
}

// PrepareOptions builds the selector entries for one facet. The sentinel
// "all" entry comes first, then the current selection if the server did not
// report it, then the server values in their original order. Null-like
// blank server values are dropped; a blank current selection is kept so it
// stays selectable.
func PrepareOptions(values []string, current Facet, allLabel string) []Option {
	opts := make([]Option, 0, len(values)+2)
	opts = append(opts, Option{Label: allLabel, Facet: Any()})

	if cur, ok := current.Value(); ok {
		found := false
		for _, v := range values {
			if v != "" && v == cur {
				found = true
				break
			}
		}
		if !found {
			label := cur
			if cur == "" {
				label = `""`
			}
			opts = append(opts, Option{Label: label, Facet: current})
		}
	}

	for _, v := range values {
		if v == "" {
			continue
		}
		opts = append(opts, Option{Label: v, Facet: Only(v)})
	}
	return opts
}

// SelectedIndex returns the position of current within opts, or 0.
func SelectedIndex(opts []Option, current Facet) int {
	for i, o := range opts {
		if o.Facet == current {
			return i
		}
	}
	return 0
}
