// Package window models the time range statistics are queried for.
//
// A Window is either a rolling Past(duration) ending now, or a Custom range
// with a fixed start and an optional end. Exactly one form is authoritative;
// constructing one discards the other. Windows are immutable values.
package window

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ErrInvalidRange is returned when a custom range is missing an endpoint or
// does not end after it starts.
var ErrInvalidRange = errors.New("invalid time range")

// InputLayout is the layout accepted and displayed for custom range endpoints.
const InputLayout = "2006/01/02 15:04"

// coarseSpan is the window length above which chart labels switch from
// time-of-day to calendar day.
const coarseSpan = 48 * time.Hour

type Kind int

const (
	KindPast Kind = iota
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindPast:
		return "past"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

type Window struct {
	kind Kind
	past time.Duration
	from time.Time
	to   time.Time
	open bool
}

// Default is the window used when nothing has been persisted: the last hour.
func Default() Window {
	return Last(time.Hour)
}

// Last returns a rolling window covering d before now.
func Last(d time.Duration) Window {
	return Window{kind: KindPast, past: d}
}

// Since returns a custom window starting at from with no end.
func Since(from time.Time) Window {
	return Window{kind: KindCustom, from: from, open: true}
}

// Range returns a closed custom window. It fails with ErrInvalidRange unless
// to is strictly after from.
func Range(from, to time.Time) (Window, error) {
	if !to.After(from) {
		return Window{}, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidRange, to.Format(InputLayout), from.Format(InputLayout))
	}
	return Window{kind: KindCustom, from: from, to: to}, nil
}

func (w Window) Kind() Kind { return w.kind }

// Past is the rolling duration; zero for custom windows.
func (w Window) Past() time.Duration {
	if w.kind != KindPast {
		return 0
	}
	return w.past
}

// From is the custom start; zero for rolling windows.
func (w Window) From() time.Time {
	if w.kind != KindCustom {
		return time.Time{}
	}
	return w.from
}

// To reports the custom end. ok is false for open custom windows and for
// rolling windows.
func (w Window) To() (to time.Time, ok bool) {
	if w.kind != KindCustom || w.open {
		return time.Time{}, false
	}
	return w.to, true
}

// Span is the length of the window as seen at now.
func (w Window) Span(now time.Time) time.Duration {
	if w.kind == KindPast {
		return w.past
	}
	end := now
	if !w.open {
		end = w.to
	}
	return end.Sub(w.from)
}

// TimeFormat returns the Go time layout chart axis labels should use:
// day granularity for windows longer than two days, minutes otherwise.
func (w Window) TimeFormat(now time.Time) string {
	if w.Span(now) > coarseSpan {
		return "01/02"
	}
	return "15:04"
}

// Encode adds the window's query parameters to q. Rolling windows send
// past in milliseconds; custom windows send from and, when closed, to as
// epoch milliseconds.
func (w Window) Encode(q url.Values) {
	if w.kind == KindPast {
		q.Set("past", strconv.FormatInt(w.past.Milliseconds(), 10))
		return
	}
	q.Set("from", strconv.FormatInt(w.from.UnixMilli(), 10))
	if !w.open {
		q.Set("to", strconv.FormatInt(w.to.UnixMilli(), 10))
	}
}

// Label renders the window for the header.
func (w Window) Label() string {
	if w.kind == KindPast {
		return PresetLabel(w.past)
	}
	end := "now"
	if !w.open {
		end = w.to.Format(InputLayout)
	}
	return w.from.Format(InputLayout) + " - " + end
}

func (w Window) Equal(o Window) bool {
	if w.kind != o.kind {
		return false
	}
	if w.kind == KindPast {
		return w.past == o.past
	}
	return w.from.Equal(o.from) && w.open == o.open && (w.open || w.to.Equal(o.to))
}

type wireWindow struct {
	Past *int64 `json:"past,omitempty"`
	From *int64 `json:"from,omitempty"`
	To   *int64 `json:"to,omitempty"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	var ww wireWindow
	if w.kind == KindPast {
		ms := w.past.Milliseconds()
		ww.Past = &ms
	} else {
		from := w.from.UnixMilli()
		ww.From = &from
		if !w.open {
			to := w.to.UnixMilli()
			ww.To = &to
		}
	}
	return json.Marshal(ww)
}

// UnmarshalJSON accepts either {"past": ms} or {"from": ms, "to": ms|null}.
// A closed range that does not end after its start is rejected.
func (w *Window) UnmarshalJSON(data []byte) error {
	var ww wireWindow
	if err := json.Unmarshal(data, &ww); err != nil {
		return err
	}
	switch {
	case ww.From != nil && ww.To != nil:
		r, err := Range(time.UnixMilli(*ww.From), time.UnixMilli(*ww.To))
		if err != nil {
			return err
		}
		*w = r
	case ww.From != nil:
		*w = Since(time.UnixMilli(*ww.From))
	case ww.Past != nil && *ww.Past > 0:
		*w = Last(time.Duration(*ww.Past) * time.Millisecond)
	default:
		*w = Default()
	}
	return nil
}

// ParseInput parses a custom range endpoint typed by the user, in local time.
// Blank input yields ok == false.
func ParseInput(s string) (t time.Time, ok bool, err error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = time.ParseInLocation(InputLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing %q: expected %s", s, InputLayout)
	}
	return t, true, nil
}
