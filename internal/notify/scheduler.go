package notify

import (
	"context"
	"log"
	"time"

	"github.com/localnerve/compliance-registry/internal/services"
	"gorm.io/gorm"
)

// Scheduler runs dispatch passes on a fixed interval until its context is
// cancelled. A pass runs to completion before the next tick is considered;
// cancellation between ledger writes just leaves some items unvisited until
// the next pass.
type Scheduler struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewScheduler creates a scheduler driving the given dispatcher.
func NewScheduler(db *gorm.DB, dispatcher *Dispatcher, interval time.Duration) *Scheduler {
	return &Scheduler{
		db:         db,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// Run blocks, running one pass immediately and then one per interval, until
// ctx is cancelled. Always returns nil: reminder failures never take the
// service down.
func (s *Scheduler) Run(ctx context.Context) error {
	s.pass()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.pass()
		}
	}
}

// pass loads all items and dispatches them against a single now snapshot.
func (s *Scheduler) pass() {
	items, err := services.ListAllItems(s.db)
	if err != nil {
		log.Printf("Reminder pass skipped, item load failed: %v", err)
		return
	}

	attempts := s.dispatcher.Dispatch(items, time.Now().UTC())
	if len(attempts) > 0 {
		log.Printf("Reminder pass complete: %d attempt(s) for %d item(s)", len(attempts), len(items))
	}
}
