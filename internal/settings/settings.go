// Package settings defines the user's persisted dashboard selection: time
// window, sort order and facets. Settings is an immutable value; the With*
// methods return modified copies and the owner decides when to persist.
package settings

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/nixlim/scopetop/internal/filter"
	"github.com/nixlim/scopetop/internal/stats"
	"github.com/nixlim/scopetop/internal/window"
)

const keyPrefix = "scopetop-"

var nonWord = regexp.MustCompile(`[^\w]`)

type Settings struct {
	Window   window.Window   `json:"window"`
	Sort     stats.SortState `json:"sort"`
	Instance filter.Facet    `json:"instance"`
	Type     filter.Facet    `json:"type"`
}

// Default returns the settings used before anything is saved. A non-empty
// appType preselects that type facet.
func Default(appType string) Settings {
	s := Settings{
		Window: window.Default(),
		Sort:   stats.DefaultSort(),
	}
	if appType != "" {
		s.Type = filter.Only(appType)
	}
	return s
}

func (s Settings) WithWindow(w window.Window) Settings {
	s.Window = w
	return s
}

func (s Settings) WithSort(st stats.SortState) Settings {
	s.Sort = st
	return s
}

func (s Settings) WithFacets(instance, typ filter.Facet) Settings {
	s.Instance = instance
	s.Type = typ
	return s
}

// Filter combines the persisted facets with a transient search term.
func (s Settings) Filter(search string) filter.State {
	return filter.State{Search: search, Instance: s.Instance, Type: s.Type}
}

// Key derives the storage key for the deployment at baseURL so that
// dashboards for different servers keep separate settings.
func Key(baseURL string) string {
	return keyPrefix + nonWord.ReplaceAllString(baseURL, "")
}

func Encode(s Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return data, nil
}

// Decode overlays the fields present in data onto defaults.
func Decode(data []byte, defaults Settings) (Settings, error) {
	s := defaults
	if err := json.Unmarshal(data, &s); err != nil {
		return defaults, fmt.Errorf("decoding settings: %w", err)
	}
	s.Sort = s.Sort.Normalize()
	return s, nil
}
