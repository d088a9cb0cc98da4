package fixture

import (
	"time"

	"github.com/albapepper/halftime-watch/internal/schedule"
)

// Status is a read-only snapshot of the loop, safe to hand to other
// goroutines.
type Status struct {
	Day         string       `json:"day,omitempty"`
	Fixtures    int          `json:"fixtures_today"`
	WindowStart *time.Time   `json:"window_start,omitempty"`
	WindowEnd   *time.Time   `json:"window_end,omitempty"`
	LastAction  string       `json:"last_action,omitempty"`
	NextAt      *time.Time   `json:"next_at,omitempty"`
	DatasetRows int          `json:"dataset_rows"`
	Teams       int          `json:"teams"`
	Notified    []string     `json:"notified"`
	LastCycle   *CycleResult `json:"last_cycle,omitempty"`
}

// Status returns the latest published snapshot.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.status
	s.Notified = append([]string(nil), p.status.Notified...)
	if p.status.LastCycle != nil {
		c := *p.status.LastCycle
		s.LastCycle = &c
	}
	return s
}

func (p *Poller) publishCycle(r CycleResult) {
	notified := p.deps.Evaluator.Notified().IDs()
	rows, teams := p.deps.Store.Len(), p.deps.Store.Teams()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastCycle = &r
	p.status.Notified = notified
	p.status.DatasetRows = rows
	p.status.Teams = teams
}

func (p *Poller) publishDiscovery(res DiscoveryResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Day = res.Day
	p.status.Fixtures = len(res.Fixtures)
	p.status.WindowStart, p.status.WindowEnd = nil, nil
	if res.HasWindow {
		start, end := res.Window.Start, res.Window.End
		p.status.WindowStart, p.status.WindowEnd = &start, &end
	}
}

func (p *Poller) publishPlan(a schedule.Action, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastAction = a.String()
	p.status.NextAt = &at
}
