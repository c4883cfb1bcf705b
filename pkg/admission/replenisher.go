package admission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule replenishes every tenant once a minute.
const DefaultSchedule = "@every 1m"

// Replenisher refills tenant token budgets on a cron schedule.
type Replenisher struct {
	controller *Controller
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReplenisher creates a replenisher for the controller. An empty schedule
// selects DefaultSchedule.
func NewReplenisher(c *Controller, schedule string, logger *slog.Logger) *Replenisher {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Replenisher{
		controller: c,
		schedule:   schedule,
		cron:       cron.New(),
		logger:     logger.With("component", "admission.replenisher"),
	}
}

// Start begins scheduled replenishment until the context is cancelled.
func (r *Replenisher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.cron.AddFunc(r.schedule, r.controller.Replenish); err != nil {
		return fmt.Errorf("invalid replenish schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("admission replenisher started",
		"schedule", r.schedule, "capacity", r.controller.capacity)

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// Stop halts scheduled replenishment.
func (r *Replenisher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		r.cron.Stop()
		r.running = false
	}
}
