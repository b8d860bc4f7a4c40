package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Runner drives the scheduler on a fixed interval for deployments without an
// external cron hitting the trigger endpoint. Both paths share Run, so the
// documented lack of a distributed trigger guard applies to either.
type Runner struct {
	scheduler *Scheduler
	interval  time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewRunner creates a runner around an existing scheduler.
func NewRunner(scheduler *Scheduler, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{
		scheduler: scheduler,
		interval:  interval,
	}
}

// Start launches the periodic worker.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	// Recreate stop channel for each start cycle so the runner can be restarted safely.
	r.stopCh = make(chan struct{})
	r.running = true
	r.ticker = time.NewTicker(r.interval)

	r.wg.Add(1)
	go r.worker()

	log.Info("[Reminder Runner] Started")
}

// Stop halts the periodic worker and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.ticker.Stop()
	close(r.stopCh)
	r.running = false

	r.wg.Wait()

	log.Info("[Reminder Runner] Stopped")
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ticker.C:
			processed := r.scheduler.Run(context.Background())
			if processed > 0 {
				log.Infof("[Reminder Runner] Sent %d cart reminders", processed)
			}
		case <-r.stopCh:
			return
		}
	}
}
