package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/pkg/metrics"
	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

var _ ports.EventPublisher = (*Dispatcher)(nil)

// Dispatcher routes account events to a fixed set of workers using consistent
// hashing on the account id, so events of one account are recorded in order.
type Dispatcher struct {
	workers []chan domain.AccountEvent
	service ports.EventService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccountEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccountEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and stop
// when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands the event to the worker owning its account. It never blocks
// the request path: when the worker's buffer is full the event is dropped.
func (d *Dispatcher) Publish(event domain.AccountEvent) {
	idx := d.shardIndex(event.AccountID)
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx))
	// Count before the send so a fast worker never drives the gauge negative.
	depth.Inc()
	select {
	case d.workers[idx] <- event:
	default:
		depth.Dec()
		metrics.EventsErrorsTotal.WithLabelValues(string(event.Type)).Inc()
		d.log.Warn().
			Str("account_id", event.AccountID).
			Str("event_type", string(event.Type)).
			Int("worker_id", idx).
			Msg("event queue full, dropping event")
	}
}

// shardIndex maps an account id deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccountEvent) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch, depth)
			return
		case event := <-ch:
			depth.Dec()
			d.record(ctx, id, event)
		}
	}
}

// drain records whatever is still buffered using a context detached from the
// cancelled one.
func (d *Dispatcher) drain(id int, ch <-chan domain.AccountEvent, depth interface{ Dec() }) {
	ctx := context.Background()
	for {
		select {
		case event := <-ch:
			depth.Dec()
			d.record(ctx, id, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, event domain.AccountEvent) {
	if err := d.service.Record(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("account_id", event.AccountID).
			Str("event_type", string(event.Type)).
			Int("worker_id", id).
			Msg("event recording failed")
	}
}
