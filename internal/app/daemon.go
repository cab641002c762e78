package app

import (
	"context"
	"fmt"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/config"
	"github.com/promptrepo-hq/promptrepo-go/internal/logger"
)

// Daemon repeats evaluation passes on a fixed interval until its context is
// cancelled.
type Daemon struct {
	runner   *Runner
	interval time.Duration
	log      logger.Logger
}

// NewDaemon builds a daemon runtime from config files.
func NewDaemon(ctx context.Context, cfg *config.Config, log logger.Logger) (*Daemon, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	runner, err := NewRunner(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		runner:   runner,
		interval: cfg.EvalInterval,
		log:      log,
	}, nil
}

// Run starts the eval loop until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if d == nil || d.runner == nil {
		return fmt.Errorf("daemon is not initialized")
	}
	defer d.runner.Close()

	if d.runner.SuiteCount() == 0 {
		d.log.WarnObj("no suites enabled; daemon idle", "suites_file", d.runner.cfg.SuitesFile)
		<-ctx.Done()
		return ctx.Err()
	}

	d.log.InfoObj("eval loop starting", "daemon_state", map[string]any{
		"suites_count":  d.runner.SuiteCount(),
		"sinks_count":   d.runner.fanout.Size(),
		"eval_interval": d.interval.String(),
	})

	if err := d.runner.RunOnce(ctx); err != nil {
		d.log.ErrorObj("initial eval pass failed", "error", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.InfoObj("eval loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := d.runner.RunOnce(ctx); err != nil {
				d.log.ErrorObj("scheduled eval pass failed", "error", err)
			}
		}
	}
}
