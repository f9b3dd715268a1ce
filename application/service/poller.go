package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/repovista/repovista/internal/config"
)

// StatusPoller drives the status cache for one repository. It fetches
// immediately, ticks at the configured interval while the status is active
// (indexing or pending), and once a terminal status is observed it stops
// ticking and blocks until an invalidation wakes it, so completion restarts
// polling within one interval. The poller owns its timer; nothing else in
// the process schedules status fetches.
type StatusPoller struct {
	repos    *Repositories
	id       string
	interval time.Duration
	logger   *slog.Logger
}

// PollerOption configures a StatusPoller.
type PollerOption func(*StatusPoller)

// WithPollInterval sets the tick interval used while the status is active.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *StatusPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollLogger sets the logger.
func WithPollLogger(logger *slog.Logger) PollerOption {
	return func(p *StatusPoller) { p.logger = logger }
}

// NewStatusPoller creates a poller for one repository's indexing status.
func NewStatusPoller(repos *Repositories, id string, opts ...PollerOption) *StatusPoller {
	p := &StatusPoller{
		repos:    repos,
		id:       id,
		interval: config.DefaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled. It always returns ctx.Err().
func (p *StatusPoller) Run(ctx context.Context) error {
	q := p.repos.StatusQuery(p.id)
	sub := q.Subscribe()
	defer sub.Close()

	// Zero timer forces an immediate first fetch.
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-sub.Changes():
			// Pings from our own cache writes leave the entry fresh;
			// only an invalidation warrants an out-of-band fetch.
			if !q.Stale() {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		report, err := q.Result(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case err != nil:
			p.logger.Warn("status poll failed",
				slog.String("repo_id", p.id), slog.String("error", err.Error()))
			timer.Reset(p.interval)
		case report.Status().IsActive():
			timer.Reset(p.interval)
		default:
			// Terminal status: leave the timer stopped and wait for an
			// invalidation to restart the cycle.
			p.logger.Debug("status poll settled",
				slog.String("repo_id", p.id), slog.String("status", string(report.Status())))
		}
	}
}
