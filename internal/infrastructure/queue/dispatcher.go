package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/rewear-app/exchange-api/internal/api/metrics"
	"github.com/rewear-app/exchange-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher applies best-effort counter increments asynchronously. Updates
// are sharded to a fixed set of workers by item ID, keeping increments for
// the same item ordered. Failures are logged and dropped; a lost view count
// must never surface to the request that produced it.
type Dispatcher struct {
	workers []chan ports.CounterUpdate
	items   ports.ItemRepository
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, items ports.ItemRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.CounterUpdate, numWorkers),
		items:   items,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CounterUpdate, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an update to the worker owning its item. When a worker's
// buffer is full the update is dropped rather than blocking the caller.
func (d *Dispatcher) Enqueue(update ports.CounterUpdate) {
	idx := d.shardIndex(update.ItemID)
	select {
	case d.workers[idx] <- update:
		metrics.CounterQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.CounterDropsTotal.WithLabelValues(string(update.Field)).Inc()
		d.log.Warn().Str("item_id", update.ItemID).Str("field", string(update.Field)).Msg("counter queue full, update dropped")
	}
}

// shardIndex maps an item ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(itemID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(itemID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CounterUpdate) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			metrics.CounterQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
			if err := d.apply(ctx, update); err != nil {
				d.log.Warn().Err(err).
					Str("item_id", update.ItemID).
					Str("field", string(update.Field)).
					Int("worker_id", id).
					Msg("counter update failed")
				continue
			}
			metrics.CounterUpdatesTotal.WithLabelValues(string(update.Field)).Inc()
		}
	}
}

func (d *Dispatcher) apply(ctx context.Context, update ports.CounterUpdate) error {
	switch update.Field {
	case ports.CounterInterest:
		return d.items.IncrementInterest(ctx, update.ItemID)
	default:
		return d.items.IncrementViews(ctx, update.ItemID)
	}
}
