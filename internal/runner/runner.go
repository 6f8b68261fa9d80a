// Package runner executes the configured pipelines, one-shot or on a cron
// schedule. Pipelines are independent: one failing never stops the others
// from running, but the failure is carried into the exit status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

type Pipeline interface {
	Name() string
	Run(ctx context.Context) error
}

type Runner struct {
	pipelines []Pipeline
	logger    *log.Logger
}

func New(logger *log.Logger, pipelines ...Pipeline) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		pipelines: pipelines,
		logger:    logger,
	}
}

// RunOnce runs every pipeline in order and returns the joined errors. All
// pipelines run even when an earlier one fails.
func (r *Runner) RunOnce(ctx context.Context) error {
	var errs []error
	for _, p := range r.pipelines {
		r.logger.Printf("running %s pipeline", p.Name())
		if err := p.Run(ctx); err != nil {
			r.logger.Printf("%s pipeline failed: %v", p.Name(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartSchedule runs the pipelines on the given cron spec until ctx is
// cancelled, then waits for an in-flight run to finish.
func (r *Runner) StartSchedule(ctx context.Context, spec string) error {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Printf("scheduled run finished with errors: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	r.logger.Printf("scheduling pipelines: %s", spec)
	c.Start()

	<-ctx.Done()
	r.logger.Println("scheduler stopping — context cancelled")
	<-c.Stop().Done()
	return nil
}
