package alerts

import (
	"context"

	"github.com/andreeap/go-forest-watch/internal/models"
	"github.com/andreeap/go-forest-watch/internal/worker"
)

// Dispatcher queues notifications onto a bounded worker pool so a slow
// alert sink never stalls the monitoring loop.
type Dispatcher struct {
	pool *worker.Pool[models.Notification]
}

func NewDispatcher(n *Notifier, workers, bufferSize int) *Dispatcher {
	return &Dispatcher{
		pool: worker.NewPool(workers, bufferSize, n.Notify),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.pool.Start(ctx)
}

// Notify hands the notification to the pool. Blocks only when the buffer
// is full.
func (d *Dispatcher) Notify(note models.Notification) {
	d.pool.Submit(note)
}

func (d *Dispatcher) Stop() {
	d.pool.Stop()
}
