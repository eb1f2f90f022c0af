package histogram

// Accumulator collects the pages of one node's histogram in receipt order.
// Each Start issues a new generation; pages carrying any other generation
// are stale and ignored. It is not safe for concurrent use and is meant to
// be driven from a single update loop.
type Accumulator struct {
	nodeID  string
	gen     uint64
	active  bool
	done    bool
	buckets []Bucket
	pages   int

	startDate int64
	endDate   int64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Start discards any collected buckets and begins collecting for nodeID.
// The returned generation must accompany every page fetched for it.
func (a *Accumulator) Start(nodeID string) uint64 {
	a.gen++
	a.nodeID = nodeID
	a.active = true
	a.done = false
	a.buckets = nil
	a.pages = 0
	a.startDate, a.endDate = 0, 0
	return a.gen
}

// Stop abandons the current node so that in-flight pages are dropped.
func (a *Accumulator) Stop() {
	a.gen++
	a.active = false
	a.done = false
	a.nodeID = ""
	a.buckets = nil
	a.pages = 0
}

// Current reports whether gen still identifies the active collection.
func (a *Accumulator) Current(gen uint64) bool {
	return a.active && gen == a.gen
}

// Append adds a page. accepted is false when the page is stale. When more
// is true the caller should fetch the next page with cursor, which is never
// empty: an empty cursor would request the first page again, so it ends
// collection like a null one.
func (a *Accumulator) Append(gen uint64, p Page) (accepted bool, cursor string, more bool) {
	if !a.Current(gen) || a.done {
		return false, "", false
	}
	a.buckets = append(a.buckets, p.Buckets...)
	a.pages++
	a.startDate, a.endDate = p.StartDate, p.EndDate
	if p.LastGroupID == nil || *p.LastGroupID == "" {
		a.done = true
		return true, "", false
	}
	return true, *p.LastGroupID, true
}

// Fail ends collection for gen after a fetch error, keeping the buckets
// received so far. It returns false for stale generations.
func (a *Accumulator) Fail(gen uint64) bool {
	if !a.Current(gen) {
		return false
	}
	a.done = true
	return true
}

func (a *Accumulator) NodeID() string { return a.nodeID }

func (a *Accumulator) Active() bool { return a.active }

// Done reports whether the final page has arrived or collection failed.
func (a *Accumulator) Done() bool { return a.done }

func (a *Accumulator) Pages() int { return a.pages }

func (a *Accumulator) Buckets() []Bucket { return a.buckets }

// Bounds returns the window reported by the latest page, in epoch ms.
func (a *Accumulator) Bounds() (start, end int64) { return a.startDate, a.endDate }

// Span is the range to chart: the latest page's window widened to cover
// every collected bucket. A page window that does not overlap the buckets
// still yields a span containing them.
func (a *Accumulator) Span() (start, end int64) {
	start, end = a.startDate, a.endDate
	if len(a.buckets) == 0 {
		return start, end
	}
	first, last := a.buckets[0].StartDate, a.buckets[0].EndDate
	for _, b := range a.buckets[1:] {
		first = min(first, b.StartDate)
		last = max(last, b.EndDate)
	}
	if end <= start {
		return first, last
	}
	return min(start, first), max(end, last)
}

// Series rebuilds the chart series from everything collected so far.
func (a *Accumulator) Series(th Thresholds) Series {
	return Build(a.buckets, th)
}
