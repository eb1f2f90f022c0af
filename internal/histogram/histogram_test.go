package histogram

import (
	"math"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestBuild_RateAndMidpoint(t *testing.T) {
	buckets := []Bucket{
		{StartDate: 0, EndDate: 2000, Hits: 10, Min: 1, Max: 9, Avg: 4},
		{StartDate: 2000, EndDate: 2500, Hits: 1, Min: 2, Max: 2, Avg: 2},
	}
	s := Build(buckets, Thresholds{Warn: 1000, Bad: 3000})

	if len(s.Rate) != 2 {
		t.Fatalf("want 2 rate points, got %d", len(s.Rate))
	}
	if s.Rate[0].Y != 5.0 {
		t.Errorf("rate[0]: want 5.0, got %v", s.Rate[0].Y)
	}
	if s.Rate[1].Y != 2.0 {
		t.Errorf("rate[1]: want 2.0, got %v", s.Rate[1].Y)
	}
	if s.Avg[0].X != 1000 || s.Avg[1].X != 2250 {
		t.Errorf("midpoints: got %d, %d", s.Avg[0].X, s.Avg[1].X)
	}
	if s.Min[0].Y != 1 || s.Max[0].Y != 9 || s.Avg[0].Y != 4 {
		t.Errorf("values: got min=%v max=%v avg=%v", s.Min[0].Y, s.Max[0].Y, s.Avg[0].Y)
	}
}

func TestBuild_Thresholds(t *testing.T) {
	buckets := []Bucket{
		{StartDate: 100, EndDate: 200},
		{StartDate: 200, EndDate: 400},
	}
	s := Build(buckets, Thresholds{Warn: 1000, Bad: 3000})

	wantBad := []Point{{X: 100, Y: 3000}, {X: 400, Y: 3000}}
	if len(s.Bad) != 2 || s.Bad[0] != wantBad[0] || s.Bad[1] != wantBad[1] {
		t.Errorf("bad: want %v, got %v", wantBad, s.Bad)
	}
	if len(s.Warn) != 2 || s.Warn[0].Y != 1000 || s.Warn[1].X != 400 {
		t.Errorf("warn: got %v", s.Warn)
	}
}

func TestBuild_ZeroWidthBucket(t *testing.T) {
	s := Build([]Bucket{{StartDate: 500, EndDate: 500, Hits: 3}}, Thresholds{})
	if s.Rate[0].Y != 0 || math.IsInf(s.Rate[0].Y, 0) || math.IsNaN(s.Rate[0].Y) {
		t.Errorf("zero-width rate: want 0, got %v", s.Rate[0].Y)
	}
}

func TestBuild_Empty(t *testing.T) {
	s := Build(nil, Thresholds{Warn: 1, Bad: 2})
	if !s.Empty() || len(s.Warn) != 0 {
		t.Errorf("empty input should give empty series, got %+v", s)
	}
}

func TestAccumulator_ConcatenatesPages(t *testing.T) {
	a := NewAccumulator()
	gen := a.Start("svc")

	accepted, cursor, more := a.Append(gen, Page{
		Buckets:     []Bucket{{StartDate: 1}, {StartDate: 2}},
		LastGroupID: strPtr("g1"),
	})
	if !accepted || !more || cursor != "g1" {
		t.Fatalf("page 1: accepted=%v more=%v cursor=%q", accepted, more, cursor)
	}

	accepted, _, more = a.Append(gen, Page{
		Buckets:   []Bucket{{StartDate: 3}},
		StartDate: 10,
		EndDate:   20,
	})
	if !accepted || more {
		t.Fatalf("page 2: accepted=%v more=%v", accepted, more)
	}

	got := a.Buckets()
	if len(got) != 3 || got[0].StartDate != 1 || got[1].StartDate != 2 || got[2].StartDate != 3 {
		t.Errorf("buckets: got %+v", got)
	}
	if !a.Done() || a.Pages() != 2 {
		t.Errorf("done=%v pages=%d", a.Done(), a.Pages())
	}
	if s, e := a.Bounds(); s != 10 || e != 20 {
		t.Errorf("bounds: got %d..%d", s, e)
	}

	if accepted, _, _ := a.Append(gen, Page{Buckets: []Bucket{{StartDate: 4}}}); accepted {
		t.Error("pages after the final one should be ignored")
	}
}

func TestAccumulator_DropsStalePages(t *testing.T) {
	a := NewAccumulator()
	old := a.Start("a")
	cur := a.Start("b")

	if accepted, _, _ := a.Append(old, Page{Buckets: []Bucket{{Hits: 1}}}); accepted {
		t.Error("page from a superseded node was accepted")
	}
	if accepted, _, _ := a.Append(cur, Page{Buckets: []Bucket{{Hits: 2}}}); !accepted {
		t.Error("current page rejected")
	}
	if len(a.Buckets()) != 1 || a.Buckets()[0].Hits != 2 {
		t.Errorf("buckets: got %+v", a.Buckets())
	}

	a.Stop()
	if accepted, _, _ := a.Append(cur, Page{}); accepted {
		t.Error("page accepted after Stop")
	}
	if a.Active() {
		t.Error("accumulator still active after Stop")
	}
}

func TestAccumulator_Fail(t *testing.T) {
	a := NewAccumulator()
	gen := a.Start("a")
	a.Append(gen, Page{Buckets: []Bucket{{Hits: 1}}, LastGroupID: strPtr("x")})

	if !a.Fail(gen) {
		t.Fatal("Fail on current generation returned false")
	}
	if !a.Done() || len(a.Buckets()) != 1 {
		t.Errorf("failure should keep received buckets: done=%v n=%d", a.Done(), len(a.Buckets()))
	}
	if a.Fail(gen + 1) {
		t.Error("Fail on unknown generation returned true")
	}
}

func TestAccumulator_EmptyCursorEndsPaging(t *testing.T) {
	a := NewAccumulator()
	gen := a.Start("a")

	accepted, cursor, more := a.Append(gen, Page{Buckets: []Bucket{{Hits: 1}}, LastGroupID: strPtr("")})
	if !accepted || more || cursor != "" {
		t.Fatalf("empty cursor: accepted=%v more=%v cursor=%q", accepted, more, cursor)
	}
	if !a.Done() {
		t.Error("collection should be done after an empty cursor")
	}
	if accepted, _, _ := a.Append(gen, Page{Buckets: []Bucket{{Hits: 1}}}); accepted {
		t.Error("a repeated first page was appended")
	}
}

func TestAccumulator_Span(t *testing.T) {
	tests := []struct {
		name       string
		page       Page
		start, end int64
	}{
		{
			name:  "page covers buckets",
			page:  Page{StartDate: 0, EndDate: 5000, Buckets: []Bucket{{StartDate: 1000, EndDate: 2000}}},
			start: 0, end: 5000,
		},
		{
			name:  "page disjoint from buckets",
			page:  Page{StartDate: 500000, EndDate: 600000, Buckets: []Bucket{{StartDate: 0, EndDate: 1000}}},
			start: 0, end: 600000,
		},
		{
			name:  "no page window",
			page:  Page{Buckets: []Bucket{{StartDate: 300, EndDate: 400}, {StartDate: 100, EndDate: 200}}},
			start: 100, end: 400,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccumulator()
			a.Append(a.Start("a"), tt.page)
			if s, e := a.Span(); s != tt.start || e != tt.end {
				t.Errorf("got %d..%d, want %d..%d", s, e, tt.start, tt.end)
			}
		})
	}
}
