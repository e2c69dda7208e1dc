package query

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Janitor periodically evicts expired entries from a set of stores so idle
// keys do not accumulate between queries.
type Janitor struct {
	scheduler *gocron.Scheduler
	stores    []*Store
	interval  time.Duration
}

// NewJanitor creates a Janitor sweeping the given stores.
func NewJanitor(interval time.Duration, stores ...*Store) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		stores:    stores,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (j *Janitor) Start() error {
	seconds := int(j.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := j.scheduler.Every(seconds).Seconds().Do(func() {
		var total int
		for _, st := range j.stores {
			total += st.Prune()
		}
		if total > 0 {
			log.Printf("janitor: evicted %d expired cache entries", total)
		}
	})
	if err != nil {
		return err
	}

	j.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}
