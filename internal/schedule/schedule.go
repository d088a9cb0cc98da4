// Package schedule decides when the poll loop discovers fixtures, polls, or
// sleeps. It is a pure function of the clock and the discovered state, so the
// whole daily timeline can be tested without waiting.
package schedule

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// LeadTime opens the active window before the first kickoff.
	LeadTime = 45 * time.Minute
	// TailTime keeps the window open after the last kickoff.
	TailTime = 2 * time.Hour

	// MaxPreWindowWait caps a sleep before the window opens.
	MaxPreWindowWait = 5 * time.Minute
	// MaxIdleWait caps a sleep after the window closed.
	MaxIdleWait = time.Hour
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Window is the active polling interval of a day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", w.Start.Format("15:04"), w.End.Format("15:04"))
}

// ComputeWindow spans LeadTime before the earliest kickoff to TailTime after
// the latest. It returns false when there are no kickoffs.
func ComputeWindow(kickoffs []time.Time) (Window, bool) {
	if len(kickoffs) == 0 {
		return Window{}, false
	}
	first, last := kickoffs[0], kickoffs[0]
	for _, k := range kickoffs[1:] {
		if k.Before(first) {
			first = k
		}
		if k.After(last) {
			last = k
		}
	}
	return Window{Start: first.Add(-LeadTime), End: last.Add(TailTime)}, true
}

// State is what the loop knows about the current day.
type State struct {
	// Day is the local date (YYYY-MM-DD) discovery last ran for; empty
	// before the first discovery.
	Day       string
	Window    Window
	HasWindow bool
}

// Action is the next step of the loop.
type Action int

const (
	Discover Action = iota
	Poll
	Wait
)

func (a Action) String() string {
	switch a {
	case Discover:
		return "discover"
	case Poll:
		return "poll"
	case Wait:
		return "wait"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Plan is an action plus the delay to sleep after performing it.
type Plan struct {
	Action Action
	Delay  time.Duration
}

// DayKey returns the local date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Next returns what the loop should do at now.
//
// A window still open from the previous day is polled to the end before the
// new day is discovered, so late kickoffs are not cut off at midnight.
func Next(now time.Time, loc *time.Location, st State, interval time.Duration) Plan {
	if st.HasWindow && st.Window.Contains(now) {
		return Plan{Action: Poll, Delay: interval}
	}
	if st.Day != DayKey(now, loc) {
		return Plan{Action: Discover}
	}
	if !st.HasWindow {
		return Plan{Action: Wait, Delay: untilMidnight(now, loc)}
	}
	if now.Before(st.Window.Start) {
		return Plan{Action: Wait, Delay: min(st.Window.Start.Sub(now), MaxPreWindowWait)}
	}
	return Plan{Action: Wait, Delay: min(untilMidnight(now, loc), MaxIdleWait)}
}

func untilMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	if d := next.Sub(now); d > time.Second {
		return d
	}
	return time.Second
}
