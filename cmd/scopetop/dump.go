package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/nixlim/scopetop/internal/filter"
	"github.com/nixlim/scopetop/internal/settings"
	"github.com/nixlim/scopetop/internal/source"
	"github.com/nixlim/scopetop/internal/stats"
	"github.com/nixlim/scopetop/internal/window"
)

type dumpSource interface {
	Top(ctx context.Context, q source.Query) (stats.TopLevel, error)
	Filters(ctx context.Context, w window.Window) (filter.Values, error)
}

type dumpOutput struct {
	Window  string        `json:"window" yaml:"window"`
	Filter  string        `json:"filter" yaml:"filter"`
	Sort    string        `json:"sort" yaml:"sort"`
	Entries []stats.Entry `json:"entries" yaml:"entries"`
	Facets  filter.Values `json:"facets" yaml:"facets"`
}

// runDump loads the top-level stats and the facet values for s in parallel
// and writes them to w, ordered the way the dashboard would show them.
func runDump(ctx context.Context, src dumpSource, s settings.Settings, format string, w io.Writer) error {
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown dump format %q (want json or yaml)", format)
	}

	q := source.Query{Window: s.Window, Filter: s.Filter("")}

	var (
		top    stats.TopLevel
		values filter.Values
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		top, err = src.Top(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		values, err = src.Filters(gctx, s.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	entries := top.Entries()
	stats.Sort(entries, s.Sort)

	out := dumpOutput{
		Window:  s.Window.Label(),
		Filter:  q.Filter.Label(),
		Sort:    sortLabel(s.Sort),
		Entries: entries,
		Facets:  values,
	}

	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func sortLabel(s stats.SortState) string {
	if s.Direction == stats.Descending {
		return string(s.Field) + " desc"
	}
	return string(s.Field) + " asc"
}
