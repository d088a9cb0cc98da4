package fixture

import (
	"context"
	"time"

	"github.com/albapepper/halftime-watch/internal/notifications"
	"github.com/albapepper/halftime-watch/internal/schedule"
)

// Run drives the loop until ctx is cancelled: discover the day's fixtures,
// poll inside the active window, sleep outside it.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("Poll loop started",
		"leagues", len(p.opts.Leagues),
		"interval", p.opts.PollInterval,
		"timezone", p.opts.Location.String())

	for {
		delay := p.step(ctx)
		if !sleep(ctx, delay) {
			p.logger.Info("Poll loop stopped")
			return nil
		}
	}
}

// step performs the next scheduled action and returns how long to sleep.
func (p *Poller) step(ctx context.Context) time.Duration {
	now := p.now()
	plan := schedule.Next(now, p.opts.Location, p.state, p.opts.PollInterval)

	switch plan.Action {
	case schedule.Discover:
		res, err := p.Discover(ctx, now)
		if err != nil {
			p.logger.Error("Fixture discovery failed, retrying", "error", err, "retry_in", p.opts.PollInterval)
			p.publishPlan(plan.Action, now.Add(p.opts.PollInterval))
			return p.opts.PollInterval
		}
		p.state = schedule.State{Day: res.Day, Window: res.Window, HasWindow: res.HasWindow}
		p.publishDiscovery(res)
		p.logDiscovery(res)
		p.sendDigest(ctx, res)
		return 0

	case schedule.Poll:
		p.RunCycle(ctx)

	case schedule.Wait:
		p.logger.Debug("Outside active window", "sleep", plan.Delay, "day", p.state.Day)
	}

	p.publishPlan(plan.Action, now.Add(plan.Delay))
	return plan.Delay
}

func (p *Poller) sendDigest(ctx context.Context, res DiscoveryResult) {
	if p.deps.Digest == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()

	text := notifications.FormatDigest(res.Day, res.Fixtures, res.Window, res.HasWindow)
	if err := p.deps.Digest.Send(sendCtx, text); err != nil {
		p.logger.Warn("Daily digest delivery failed", "error", err)
	}
}

// sleep waits for d or until ctx is done. It reports whether the loop should
// continue.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
