package maintenance

import (
	"fmt"
	"time"

	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner deletes activity events older than the retention window on a cron schedule.
type Pruner struct {
	eventSvc  services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	nextRun   time.Time
	now       func() time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewPruner creates a new Pruner for a standard five-field cron expression.
func NewPruner(eventSvc services.EventServiceProvider, cronExpression string, retention time.Duration) (*Pruner, error) {
	schedule, err := cron.ParseStandard(cronExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return &Pruner{
		eventSvc:  eventSvc,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		done:      make(chan bool),
	}, nil
}

// Run starts the pruner's ticking loop.
func (p *Pruner) Run() {
	log.Info().Dur("retention", p.retention).Msg("Starting event pruner")
	p.ticker = time.NewTicker(1 * time.Minute)
	defer p.ticker.Stop()

	// Run once immediately on start
	p.prune()
	p.nextRun = p.schedule.Next(p.now())

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping event pruner.")
			return
		case <-p.ticker.C:
			p.checkAndPrune()
		}
	}
}

// Stop halts the pruner.
func (p *Pruner) Stop() {
	p.done <- true
}

// checkAndPrune prunes when the scheduled time has passed.
func (p *Pruner) checkAndPrune() {
	now := p.now()
	if now.Before(p.nextRun) {
		return
	}
	p.prune()
	p.nextRun = p.schedule.Next(now)
}

func (p *Pruner) prune() {
	cutoff := p.now().Add(-p.retention)
	removed, err := p.eventSvc.PruneBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune events")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned old events")
	}
}
