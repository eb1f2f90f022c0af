// Package histogram stitches paginated time buckets for one node into
// continuous chart series.
package histogram

import "time"

// Bucket is one time slice of a node's history. Dates are epoch
// milliseconds; durations are milliseconds.
type Bucket struct {
	StartDate int64   `json:"startDate"`
	EndDate   int64   `json:"endDate"`
	Hits      int64   `json:"hits"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
}

// Page is one histogram response. A nil or empty LastGroupID means no
// further pages exist for the node and window.
type Page struct {
	ID          string   `json:"id"`
	StartDate   int64    `json:"startDate"`
	EndDate     int64    `json:"endDate"`
	Buckets     []Bucket `json:"histogram"`
	LastGroupID *string  `json:"lastGroupId"`
}

type Point struct {
	X int64
	Y float64
}

func (p Point) Time() time.Time { return time.UnixMilli(p.X) }

type Thresholds struct {
	Warn float64
	Bad  float64
}

// Series is the chart-ready view of a bucket list.
type Series struct {
	Avg  []Point
	Min  []Point
	Max  []Point
	Warn []Point
	Bad  []Point
	// Rate is hits per second.
	Rate []Point
}

// Empty reports whether there is nothing to chart.
func (s Series) Empty() bool { return len(s.Avg) == 0 }

// Build derives every series from buckets. Value series sit at each
// bucket's midpoint; warn and bad are flat two-point lines spanning the
// first bucket's start to the last bucket's end. Zero-width buckets get a
// rate of zero.
func Build(buckets []Bucket, th Thresholds) Series {
	if len(buckets) == 0 {
		return Series{}
	}

	s := Series{
		Avg:  make([]Point, 0, len(buckets)),
		Min:  make([]Point, 0, len(buckets)),
		Max:  make([]Point, 0, len(buckets)),
		Rate: make([]Point, 0, len(buckets)),
	}
	for _, b := range buckets {
		x := b.StartDate + (b.EndDate-b.StartDate)/2
		s.Avg = append(s.Avg, Point{X: x, Y: b.Avg})
		s.Min = append(s.Min, Point{X: x, Y: b.Min})
		s.Max = append(s.Max, Point{X: x, Y: b.Max})
		s.Rate = append(s.Rate, Point{X: x, Y: Rate(b)})
	}

	first := buckets[0].StartDate
	last := buckets[len(buckets)-1].EndDate
	s.Warn = []Point{{X: first, Y: th.Warn}, {X: last, Y: th.Warn}}
	s.Bad = []Point{{X: first, Y: th.Bad}, {X: last, Y: th.Bad}}
	return s
}

// Rate returns the bucket's hits per second.
func Rate(b Bucket) float64 {
	width := b.EndDate - b.StartDate
	if width <= 0 {
		return 0
	}
	return float64(b.Hits) / (float64(width) / 1000)
}
